package rigerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatsMessage(t *testing.T) {
	err := New(InvalidParameter, "bad value %d", 7)
	assert.EqualError(t, err, "InvalidParameter: bad value 7")
}

func TestNew_EmptyMessageFallsBackToKind(t *testing.T) {
	err := New(Busy, "")
	assert.EqualError(t, err, "Busy")
}

func TestKindOf_UnwrapsWrappedError(t *testing.T) {
	base := New(Timeout, "round trip exceeded deadline")
	wrapped := fmt.Errorf("controller: %w", base)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, Timeout, kind)
}

func TestKindOf_FalseForForeignError(t *testing.T) {
	_, ok := KindOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestIs_ComparesByKindNotMessage(t *testing.T) {
	a := New(CommandFailed, "radio NAKed FA")
	b := New(CommandFailed, "radio NAKed MD")
	c := New(Busy, "radio NAKed FA")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{New(NotConnected, ""), -5},
		{New(Timeout, ""), -6},
		{New(InvalidParameter, ""), -1},
		{New(FrequencyOutOfRange, ""), -1},
		{New(TransmitNotAllowed, ""), -1},
		{New(ModeNotSupported, ""), -1},
		{New(CommandFailed, ""), -10},
		{New(Busy, ""), -10},
		{New(UnsupportedOperation, ""), -12},
		{New(UnsupportedRadio, ""), -12},
		{New(InvalidResponse, ""), -9},
		{New(SerialPortError, ""), -5},
		{errors.New("not a rigerr.Error"), -14},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err))
	}
}

func TestKind_StringCoversEveryValue(t *testing.T) {
	for k := NotConnected; k <= Busy; k++ {
		assert.NotEqual(t, "Unknown", k.String())
	}
	assert.Equal(t, "Unknown", Kind(999).String())
}
