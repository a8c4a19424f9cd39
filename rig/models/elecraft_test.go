package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kd9vec/gorigd/rig"
)

// buildIFLine constructs a syntactically valid 38-byte IF response body with
// the TX/RX flag set as requested, for tests that only care about that flag.
func buildIFLine(transmit bool) string {
	flag := "0"
	if transmit {
		flag = "1"
	}
	body := "IF" + "00014230000" + strings.Repeat(" ", 15) + flag + "3" + strings.Repeat("0", 8)
	return body + ";"
}

func TestK2_PowerRoundTrip_S4(t *testing.T) {
	ops := NewK2(0)
	assert.Equal(t, rig.PowerUnitsDirectWatts0_15, ops.Traits.PowerUnits)

	setWire, err := ops.BuildSetPower(5)
	require.NoError(t, err)
	assert.Equal(t, "PC005;", string(setWire))

	getWire, err := ops.BuildGetPower()
	require.NoError(t, err)
	assert.Equal(t, "PC;", string(getWire))

	level, err := ops.ParsePower([]byte("PC005;"))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), level)
}

func TestK2_CATPTTAllowedInSSBAndRTTY(t *testing.T) {
	ops := NewK2(0)
	for _, mode := range []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeRTTY, rig.ModeRTTYR} {
		wire, err := ops.BuildSetPTT(mode, true)
		require.NoError(t, err, "mode %s", mode)
		assert.Equal(t, "TX;", string(wire), "mode %s", mode)

		wire, err = ops.BuildSetPTT(mode, false)
		require.NoError(t, err, "mode %s", mode)
		assert.Equal(t, "RX;", string(wire), "mode %s", mode)
	}
}

func TestK2_CATPTTRejectedInCW(t *testing.T) {
	ops := NewK2(0)
	for _, mode := range []rig.Mode{rig.ModeCW, rig.ModeCWR} {
		_, err := ops.BuildSetPTT(mode, true)
		assert.Error(t, err, "mode %s", mode)
		assert.ErrorIs(t, err, ErrPTTNotSupportedInMode, "mode %s", mode)
	}
}

func TestK2_GetPTTAndPostSendDelay(t *testing.T) {
	ops := NewK2(0)
	assert.Equal(t, 100*time.Millisecond, ops.Traits.PTTPostSendDelay)

	wire, err := ops.BuildGetPTT()
	require.NoError(t, err)
	assert.Equal(t, "TQ;", string(wire))

	on, err := ops.ParsePTT([]byte("TQ1;"))
	require.NoError(t, err)
	assert.True(t, on)
}

func TestK3_PTTFromIF(t *testing.T) {
	ops := NewK3(0)
	assert.Zero(t, ops.Traits.PTTPostSendDelay)

	wire, err := ops.BuildSetPTT(rig.ModeCW, true)
	require.NoError(t, err)
	assert.Equal(t, "TX;", string(wire))

	on, err := ops.ParsePTT([]byte(buildIFLine(true)))
	require.NoError(t, err)
	assert.True(t, on)
}

func TestElecraft_FrequencyRoundTrip(t *testing.T) {
	ops := NewK3(0)

	wire, err := ops.BuildSetFrequency(14_230_000, rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, "FA00014230000;", string(wire))

	getWire, err := ops.BuildGetFrequency(rig.VFOB)
	require.NoError(t, err)
	assert.Equal(t, "FB;", string(getWire))

	freq, err := ops.ParseFrequency([]byte("FA00014230000;"))
	require.NoError(t, err)
	assert.Equal(t, rig.Frequency(14_230_000), freq)
}

func TestElecraft_ModeRoundTrip(t *testing.T) {
	ops := NewK3(0)

	wire, err := ops.BuildSetMode(rig.ModeCW, rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, "MD3;", string(wire))

	mode, err := ops.ParseMode([]byte("MD3;"))
	require.NoError(t, err)
	assert.Equal(t, rig.ModeCW, mode)
}

func TestElecraft_RITRoundTrip(t *testing.T) {
	ops := NewK3(0)

	wire, err := ops.BuildSetRIT(rig.RITState{Enabled: true, OffsetHz: -150})
	require.NoError(t, err)
	assert.Equal(t, "RO-0150;", string(wire))

	state, err := ops.ParseRIT([]byte("RO-0150;"))
	require.NoError(t, err)
	assert.True(t, state.Enabled)
	assert.Equal(t, int32(-150), state.OffsetHz)
}

func TestK2_MemoryUnsupported(t *testing.T) {
	ops := NewK2(0)
	assert.Nil(t, ops.BuildWriteMemory)
	assert.Nil(t, ops.BuildReadMemory)
}
