// Package bcd implements the little-endian packed-BCD and zero-padded ASCII
// encodings used by CI-V frequency/power fields and Elecraft numeric fields.
package bcd

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeFrequency packs hz into 5 little-endian BCD bytes, as CI-V expects:
// byte i holds the decimal digits at positions 2i and 2i+1 (low nibble first).
func EncodeFrequency(hz uint64) [5]byte {
	var out [5]byte
	for i := 0; i < 5; i++ {
		lo := (hz / pow10(2*i)) % 10
		hi := (hz / pow10(2*i+1)) % 10
		out[i] = byte(hi<<4 | lo)
	}
	return out
}

// DecodeFrequency is the inverse of EncodeFrequency. It fails with an error
// if any nibble is not a valid decimal digit (0-9).
func DecodeFrequency(b [5]byte) (uint64, error) {
	var hz uint64
	for i := 0; i < 5; i++ {
		lo := b[i] & 0x0f
		hi := b[i] >> 4
		if lo > 9 || hi > 9 {
			return 0, fmt.Errorf("bcd: invalid digit in byte %d: 0x%02x", i, b[i])
		}
		hz += uint64(lo) * pow10(2*i)
		hz += uint64(hi) * pow10(2*i+1)
	}
	return hz, nil
}

// EncodePower packs a 0-255 scale value into 2 BCD bytes holding 3 decimal
// digits: tens and units in the first byte, the hundreds digit in the low
// nibble of the second byte.
func EncodePower(scale uint16) [2]byte {
	d := scale % 1000
	digits := [3]byte{byte(d % 10), byte((d / 10) % 10), byte((d / 100) % 10)}
	return [2]byte{
		digits[1]<<4 | digits[0],
		digits[2],
	}
}

// DecodePower is the inverse of EncodePower.
func DecodePower(b [2]byte) (uint16, error) {
	lo0 := b[0] & 0x0f
	hi0 := b[0] >> 4
	lo1 := b[1] & 0x0f
	hi1 := b[1] >> 4
	if lo0 > 9 || hi0 > 9 || lo1 > 9 || hi1 > 9 {
		return 0, fmt.Errorf("bcd: invalid digit in power bytes % x", b)
	}
	return uint16(lo0) + uint16(hi0)*10 + uint16(lo1)*100, nil
}

// AsciiFreq11 renders hz as 11 zero-padded decimal ASCII digits, the
// Elecraft-style fixed-width frequency field.
func AsciiFreq11(hz uint64) [11]byte {
	s := fmt.Sprintf("%011d", hz)
	var out [11]byte
	copy(out[:], s)
	return out
}

// ParseAsciiFreq is the inverse of AsciiFreq11.
func ParseAsciiFreq(b []byte) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

// AsciiInt renders n as a zero-padded unsigned decimal string of the given
// width.
func AsciiInt(n uint64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// ParseAsciiInt is the inverse of AsciiInt.
func ParseAsciiInt(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}

// AsciiSignedInt renders n with an explicit leading sign character, the
// convention Elecraft uses for signed fields (e.g. RIT offsets).
func AsciiSignedInt(n int64, width int) string {
	sign := "+"
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + fmt.Sprintf("%0*d", width, n)
}

// ParseAsciiSignedInt is the inverse of AsciiSignedInt.
func ParseAsciiSignedInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bcd: empty signed int field")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}

func pow10(n int) uint64 {
	r := uint64(1)
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}
