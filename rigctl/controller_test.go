package rigctl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/serial"
)

func ackFrame(civAddr byte) []byte {
	return []byte{0xFE, 0xFE, 0xE0, civAddr, 0xFB, 0xFD}
}

func newIcomController(t *testing.T, model rig.ModelID, responses ...[]byte) (*Controller, *serial.MockPort) {
	t.Helper()
	mock := serial.NewMockPort(responses...)
	sess := serial.NewWithPort(serial.Config{}, mock)
	c, err := NewWithSession(model, sess)
	require.NoError(t, err)
	return c, mock
}

func newElecraftController(t *testing.T, model rig.ModelID, responses ...[]byte) (*Controller, *serial.MockPort) {
	t.Helper()
	mock := serial.NewMockPort(responses...)
	sess := serial.NewWithPort(serial.Config{}, mock)
	c, err := NewWithSession(model, sess)
	require.NoError(t, err)
	return c, mock
}

func TestSetFrequency_IcomAckInvalidatesCacheThenSeeds(t *testing.T) {
	c, _ := newIcomController(t, rig.ModelIC7300, ackFrame(0x94))
	err := c.SetFrequency(context.Background(), 14_230_000, rig.VFOA)
	require.NoError(t, err)

	freq, err := c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, rig.Frequency(14_230_000), freq)
}

func TestSetFrequency_OutOfRangeRejectedBeforeIO(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300)
	err := c.SetFrequency(context.Background(), 999_000_000_000, rig.VFOA)
	assert.Error(t, err)
	assert.Empty(t, mock.Written, "no wire traffic for a capability rejection")
}

func TestSetMode_UnsupportedModeRejectedBeforeIO(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300)
	err := c.SetMode(context.Background(), rig.ModeWFM, rig.VFOA)
	assert.Error(t, err)
	assert.Empty(t, mock.Written)
}

func TestGetFrequency_CachedAcrossTwoReads(t *testing.T) {
	bcd5 := []byte{0x00, 0x00, 0x23, 0x14, 0x00} // 14,230,000 Hz BCD5 little endian
	resp := append([]byte{0xFE, 0xFE, 0xE0, 0x94, 0x03}, bcd5...)
	resp = append(resp, 0xFD)
	c, mock := newIcomController(t, rig.ModelIC7300, resp)

	f1, err := c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)
	f2, err := c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Equal(t, 1, mock.ReadCount, "second read served from cache, no second wire round trip")
}

func TestGetFrequencyFresh_BypassesCache(t *testing.T) {
	bcd5a := []byte{0x00, 0x00, 0x23, 0x14, 0x00}
	bcd5b := []byte{0x00, 0x00, 0x24, 0x14, 0x00}
	respA := append(append([]byte{0xFE, 0xFE, 0xE0, 0x94, 0x03}, bcd5a...), 0xFD)
	respB := append(append([]byte{0xFE, 0xFE, 0xE0, 0x94, 0x03}, bcd5b...), 0xFD)
	c, mock := newIcomController(t, rig.ModelIC7300, respA, respB)

	f1, err := c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)
	f2, err := c.GetFrequencyFresh(context.Background(), rig.VFOA)
	require.NoError(t, err)

	assert.NotEqual(t, f1, f2)
	assert.Equal(t, 2, mock.ReadCount)
}

func TestDisconnect_InvalidatesCache(t *testing.T) {
	bcd5 := []byte{0x00, 0x00, 0x23, 0x14, 0x00}
	resp := append(append([]byte{0xFE, 0xFE, 0xE0, 0x94, 0x03}, bcd5...), 0xFD)
	mock := serial.NewMockPort(resp, resp)
	sess := serial.NewWithPort(serial.Config{}, mock)
	c, err := NewWithSession(rig.ModelIC7300, sess)
	require.NoError(t, err)

	_, err = c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CacheStatistics())

	require.NoError(t, c.Disconnect())
	assert.Equal(t, 0, c.CacheStatistics())
}

func TestSetFrequency_ElecraftUsesSendNotRoundTrip(t *testing.T) {
	c, mock := newElecraftController(t, rig.ModelK3)
	err := c.SetFrequency(context.Background(), 14_230_000, rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, 0, mock.ReadCount, "elecraft set commands never await a response")
	require.Len(t, mock.Written, 1)
	assert.Equal(t, "FA00014230000;", string(mock.Written[0]))
}

func TestSetSplit_ElecraftSeedsCache(t *testing.T) {
	c, mock := newElecraftController(t, rig.ModelK3)
	require.NoError(t, c.SetSplit(context.Background(), true))
	on, err := c.IsSplitEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	require.Len(t, mock.Written, 1, "IsSplitEnabled served from the Put seed, no second command")
	assert.Equal(t, 0, mock.ReadCount)
}

func TestSetVFO_RejectsIllegalVFOForTargetableModel(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300)
	err := c.SetVFO(context.Background(), rig.VFOMain)
	assert.Error(t, err)
	assert.Empty(t, mock.Written)
}

func TestSetVFO_MainSubModel(t *testing.T) {
	c, _ := newIcomController(t, rig.ModelIC7600, ackFrame(0x7A))
	err := c.SetVFO(context.Background(), rig.VFOMain)
	require.NoError(t, err)
}

func TestSetRIT_OutOfRangeRejected(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300)
	err := c.SetRIT(context.Background(), rig.RITState{Enabled: true, OffsetHz: 10_000})
	assert.Error(t, err)
	assert.Empty(t, mock.Written)
}

func TestSetXIT_UnsupportedModelRejected(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC706)
	err := c.SetXIT(context.Background(), rig.RITState{Enabled: true, OffsetHz: 100})
	assert.Error(t, err)
	assert.Empty(t, mock.Written)
}

func TestConfigure_OrderedFrequencyModePower(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300, ackFrame(0x94), ackFrame(0x94), ackFrame(0x94))
	freq := rig.Frequency(7_125_000)
	mode := rig.ModeLSB
	power := uint16(100)

	err := c.Configure(context.Background(), ConfigureRequest{
		Frequency: &freq,
		Mode:      &mode,
		Power:     &power,
		VFO:       rig.VFOA,
	})
	require.NoError(t, err)
	require.Len(t, mock.Written, 3)
}

func TestConfigure_ShortCircuitsOnFirstError(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300)
	freq := rig.Frequency(999_000_000_000)
	mode := rig.ModeLSB

	err := c.Configure(context.Background(), ConfigureRequest{Frequency: &freq, Mode: &mode})
	assert.Error(t, err)
	assert.Empty(t, mock.Written, "mode set must never reach the wire once frequency validation fails")
}

func TestSetPTT_SeedsCacheOnSuccess(t *testing.T) {
	c, _ := newIcomController(t, rig.ModelIC7300, ackFrame(0x94))
	err := c.SetPTT(context.Background(), true)
	require.NoError(t, err)

	on, err := c.GetPTT(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestCancelledContext_SessionUsableAfterward(t *testing.T) {
	c, mock := newElecraftController(t, rig.ModelK3, []byte("FA00014230000;"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetFrequency(ctx, rig.VFOA)
	assert.Error(t, err)

	freq, err := c.GetFrequency(context.Background(), rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, rig.Frequency(14_230_000), freq)
	assert.Equal(t, 1, mock.ReadCount)
}

func TestNew_UnknownModelIsRejected(t *testing.T) {
	_, err := New(rig.ModelID("nonexistent"), "/dev/null")
	assert.Error(t, err)
}

func TestMemoryChannel_RecallAppliesFrequencyThenMode(t *testing.T) {
	bcd5 := []byte{0x00, 0x00, 0x23, 0x14, 0x00}
	memResp := []byte{0xFE, 0xFE, 0xE0, 0x94, 0x1A, 0x05}
	memResp = append(memResp, bcd5...)
	memResp = append(memResp, 0x00) // LSB
	memResp = append(memResp, 0xFD)

	c, mock := newIcomController(t, rig.ModelIC7300, memResp, ackFrame(0x94), ackFrame(0x94))
	err := c.RecallMemoryChannel(context.Background(), 5, rig.VFOA)
	require.NoError(t, err)
	assert.Equal(t, 3, len(mock.Written))
}

func TestSetPower_SeedsCacheWithoutExtraRead(t *testing.T) {
	c, mock := newIcomController(t, rig.ModelIC7300, ackFrame(0x94))
	require.NoError(t, c.SetPower(context.Background(), 100))
	p, err := c.GetPower(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(100), p)
	assert.Equal(t, 1, mock.ReadCount, "GetPower served from the Put seed, not a second round trip")
}

func TestGetAttenuator_Elecraft(t *testing.T) {
	c, _ := newElecraftController(t, rig.ModelK4, []byte("RA01;"))
	level, err := c.GetAttenuator(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, level)
}

func TestSetMemoryChannel_UnsupportedOnElecraft(t *testing.T) {
	c, mock := newElecraftController(t, rig.ModelK3)
	err := c.SetMemoryChannel(context.Background(), rig.MemoryChannel{Number: 1})
	assert.Error(t, err)
	assert.Empty(t, mock.Written)
}
