// Package elecraft implements the Elecraft K-series ASCII line codec:
// semicolon-terminated commands and the fixed-width IF response.
package elecraft

import (
	"fmt"
	"strings"
)

// Terminator is the line terminator for every Elecraft command and response.
const Terminator = ';'

// Busy is the response the radio sends when it cannot accept a command.
const Busy = "?;"

// Build renders a command name with its argument string into a terminated
// line, e.g. Build("FA", "00014230000") -> "FA00014230000;".
func Build(name, args string) string {
	return name + args + string(Terminator)
}

// Query renders a bare query line, e.g. Query("FA") -> "FA;".
func Query(name string) string {
	return name + string(Terminator)
}

// StripTerminator trims a trailing ';' if present.
func StripTerminator(line string) string {
	return strings.TrimSuffix(line, string(Terminator))
}

// Prefix returns the leading command-name characters of a response line
// (everything before the first digit, sign, or terminator), e.g.
// Prefix("FA00014230000;") -> "FA".
func Prefix(line string) string {
	for i, r := range line {
		if (r >= '0' && r <= '9') || r == '+' || r == '-' || r == ';' {
			return line[:i]
		}
	}
	return line
}

// Args returns the line's content after its command-name prefix, with the
// terminator stripped.
func Args(line string) string {
	return StripTerminator(line[len(Prefix(line)):])
}

// IFFrameLen is the fixed length of an IF response, spec.md §4.4.
const IFFrameLen = 38

// TXRXFlagPos is the zero-based byte position of the TX/RX flag within an
// IF response.
const TXRXFlagPos = 28

// IFResponse holds the positional fields of a parsed IF response that this
// library cares about. Other positions in the 38-char frame carry fields
// (RIT/XIT offsets, split status, bank, etc.) not yet surfaced here; ParseIF
// keeps the raw string available via Raw for future extension.
type IFResponse struct {
	Raw        string
	FrequencyA uint64 // 11-digit field, positions 2-12
	Mode       byte   // single digit, position 29
	Transmit   bool   // true if transmitting
}

// ParseIF parses a fixed 38-character "IF..." response (including its
// leading "IF" and trailing ';').
func ParseIF(line string) (*IFResponse, error) {
	body := StripTerminator(line)
	if len(body) < IFFrameLen {
		return nil, fmt.Errorf("elecraft: IF response too short: %d bytes", len(body))
	}
	if !strings.HasPrefix(body, "IF") {
		return nil, fmt.Errorf("elecraft: not an IF response: %q", line)
	}
	freqField := body[2:13]
	var freq uint64
	for _, c := range freqField {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("elecraft: invalid frequency field %q", freqField)
		}
		freq = freq*10 + uint64(c-'0')
	}
	flag := body[TXRXFlagPos]
	if flag != '0' && flag != '1' {
		return nil, fmt.Errorf("elecraft: invalid tx/rx flag %q", string(flag))
	}
	return &IFResponse{
		Raw:        body,
		FrequencyA: freq,
		Mode:       body[29],
		Transmit:   flag == '1',
	}, nil
}

// ModeCode maps elecraft.Mode digits ('1'..'9') to names, per spec.md §4.4.
var ModeCode = map[byte]string{
	'1': "LSB",
	'2': "USB",
	'3': "CW",
	'4': "FM",
	'5': "AM",
	'6': "DATA",
	'7': "CW-R",
	'9': "DATA-R",
}

// ModeCodeReverse is the inverse of ModeCode.
var ModeCodeReverse = func() map[string]byte {
	m := make(map[string]byte, len(ModeCode))
	for k, v := range ModeCode {
		m[v] = k
	}
	return m
}()
