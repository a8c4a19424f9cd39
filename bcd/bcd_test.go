package bcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeFrequency_Golden(t *testing.T) {
	// 14,230,000 Hz from the S1 scenario in spec.md §8.
	got := EncodeFrequency(14_230_000)
	assert.Equal(t, [5]byte{0x00, 0x00, 0x23, 0x14, 0x00}, got)
}

func TestFrequencyRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hz := rapid.Uint64Range(0, 9_999_999_999).Draw(t, "hz")
		got, err := DecodeFrequency(EncodeFrequency(hz))
		require.NoError(t, err)
		assert.Equal(t, hz, got)
	})
}

func TestDecodeFrequency_InvalidNibble(t *testing.T) {
	_, err := DecodeFrequency([5]byte{0xAA, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestPowerRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scale := uint16(rapid.IntRange(0, 255).Draw(t, "scale"))
		got, err := DecodePower(EncodePower(scale))
		require.NoError(t, err)
		assert.Equal(t, scale, got)
	})
}

func TestAsciiIntRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(1, 10).Draw(t, "width")
		max := uint64(1)
		for i := 0; i < width; i++ {
			max *= 10
		}
		n := rapid.Uint64Range(0, max-1).Draw(t, "n")
		got, err := ParseAsciiInt(AsciiInt(n, width))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	})
}

func TestAsciiSignedIntRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(-9999, 9999).Draw(t, "n")
		got, err := ParseAsciiSignedInt(AsciiSignedInt(n, 4))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	})
}

func TestAsciiFreq11RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hz := rapid.Uint64Range(0, 99_999_999_999).Draw(t, "hz")
		b := AsciiFreq11(hz)
		got, err := ParseAsciiFreq(b[:])
		require.NoError(t, err)
		assert.Equal(t, hz, got)
	})
}
