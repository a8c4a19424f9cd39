package civ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SetFrequency_S1(t *testing.T) {
	// spec.md §8 scenario S1: set_frequency(14_230_000) on address 0x94.
	got := Build(0x94, []byte{0x05}, []byte{0x00, 0x00, 0x23, 0x14, 0x00})
	want := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x05, 0x00, 0x00, 0x23, 0x14, 0x00, 0xFD}
	assert.Equal(t, want, got)
}

func TestParse_Ack(t *testing.T) {
	raw := []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0xFD}
	f, err := Parse(raw, nil, false)
	require.NoError(t, err)
	assert.True(t, f.IsAck)
	assert.False(t, f.IsNak)
}

func TestParse_Nak(t *testing.T) {
	raw := []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFA, 0xFD}
	f, err := Parse(raw, nil, false)
	require.NoError(t, err)
	assert.True(t, f.IsNak)
}

func TestParse_FrequencyResponse_S1(t *testing.T) {
	raw := []byte{0xFE, 0xFE, 0xE0, 0x94, 0x03, 0x00, 0x00, 0x23, 0x14, 0x00, 0xFD}
	f, err := Parse(raw, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, f.Command)
	assert.Equal(t, []byte{0x00, 0x00, 0x23, 0x14, 0x00}, f.Data)
}

func TestParse_StandardTwoByteCommand(t *testing.T) {
	raw := []byte{0xFE, 0xFE, 0xE0, 0x7A, 0x16, 0x02, 0x01, 0xFD}
	sub := byte(0x02)
	f, err := Parse(raw, &sub, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x16, 0x02}, f.Command)
	assert.Equal(t, []byte{0x01}, f.Data)
}

func TestParse_AlternateLayout_S3(t *testing.T) {
	// spec.md §8 scenario S3: IC-7600 get_preamp via 16 02, alt layout.
	raw := []byte{0xFE, 0xFE, 0xE0, 0x7A, 0x16, 0x02, 0x01, 0xFD}
	sub := byte(0x02)
	f, err := Parse(raw, &sub, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x16}, f.Command)
	assert.Equal(t, []byte{0x02, 0x01}, f.Data)
}

func TestParse_MissingPreamble(t *testing.T) {
	_, err := Parse([]byte{0x00, 0xFE, 0xE0, 0x94, 0xFB, 0xFD}, nil, false)
	assert.Error(t, err)
}

func TestParse_MissingTerminator(t *testing.T) {
	_, err := Parse([]byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0x00}, nil, false)
	assert.Error(t, err)
}
