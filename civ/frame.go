// Package civ implements Icom's binary CI-V frame codec: framing,
// addressing, ACK/NAK classification, and the alternate subcommand-in-data
// response layout some models use.
package civ

import "fmt"

const (
	preamble   = 0xFE
	terminator = 0xFD
	ackByte    = 0xFB
	nakByte    = 0xFA

	// ControllerAddress is the conventional CI-V address for the
	// controlling computer.
	ControllerAddress = 0xE0
)

// Frame is a parsed or to-be-built CI-V frame. Command is 1 or 2 bytes;
// Data is whatever follows the command bytes, excluding the terminator.
type Frame struct {
	To      byte
	From    byte
	Command []byte
	Data    []byte
	IsAck   bool
	IsNak   bool
}

// Build serializes a command frame: preamble, to, from (ControllerAddress),
// command bytes, data bytes, terminator.
func Build(to byte, command []byte, data []byte) []byte {
	out := make([]byte, 0, 6+len(command)+len(data))
	out = append(out, preamble, preamble, to, ControllerAddress)
	out = append(out, command...)
	out = append(out, data...)
	out = append(out, terminator)
	return out
}

// Parse decodes a single complete CI-V frame (preamble through terminator,
// inclusive) and classifies it as ACK, NAK, or a data frame.
//
// subcommand is the second command byte the caller expects in the response,
// or nil if the command the caller sent has no subcommand byte. altLayout
// tells the codec this model uses the alternate subcommand-in-data response
// layout (spec.md §4.3) for this particular command. With altLayout set, the
// alternate split (one command byte, subcommand echoed as the first data
// byte) is tried first and used whenever the second body byte equals
// *subcommand; otherwise the standard two-byte command split is used. For
// models that don't carry the quirk, altLayout is always false and the
// standard split is the only one ever attempted.
func Parse(raw []byte, subcommand *byte, altLayout bool) (*Frame, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("civ: frame too short: %d bytes", len(raw))
	}
	if raw[0] != preamble || raw[1] != preamble {
		return nil, fmt.Errorf("civ: missing preamble")
	}
	if raw[len(raw)-1] != terminator {
		return nil, fmt.Errorf("civ: missing terminator")
	}
	f := &Frame{
		To:   raw[2],
		From: raw[3],
	}
	body := raw[4 : len(raw)-1]
	if len(body) == 1 {
		switch body[0] {
		case ackByte:
			f.IsAck = true
			return f, nil
		case nakByte:
			f.IsNak = true
			return f, nil
		}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("civ: empty frame body")
	}

	if subcommand == nil {
		f.Command = body[:1]
		f.Data = body[1:]
		return f, nil
	}

	if altLayout && len(body) >= 2 && body[1] == *subcommand {
		f.Command = body[:1]
		f.Data = body[1:]
		return f, nil
	}

	if len(body) < 2 {
		return nil, fmt.Errorf("civ: frame too short for subcommand")
	}
	f.Command = body[:2]
	f.Data = body[2:]
	return f, nil
}
