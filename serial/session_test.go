package serial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_Basic(t *testing.T) {
	mock := NewMockPort([]byte("PC005;"))
	s := NewWithPort(Config{}, mock)

	resp, err := s.RoundTrip(context.Background(), []byte("PC;"), ';', 0)
	require.NoError(t, err)
	assert.Equal(t, "PC005;", string(resp))
	assert.Equal(t, [][]byte{[]byte("PC;")}, mock.Written)
}

func TestRoundTrip_NotConnected(t *testing.T) {
	s := New(Config{Device: "/dev/null", Baud: 9600})
	_, err := s.RoundTrip(context.Background(), []byte("x"), ';', 0)
	assert.Error(t, err)
}

func TestRoundTrip_EchoSuppression(t *testing.T) {
	// The first ReadUntil call returns the echoed command, the second
	// returns the real ACK.
	mock := NewMockPort([]byte("FE FE 94 E0 05 FD"), []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0xFD})
	s := NewWithPort(Config{EchoesCommands: true}, mock)

	resp, err := s.RoundTrip(context.Background(), []byte{0xFE, 0xFE, 0x94, 0xE0, 0x05, 0xFD}, 0xFD, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0xFD}, resp)
	assert.Equal(t, 2, mock.ReadCount)
}

func TestRoundTrip_CancelledContext(t *testing.T) {
	mock := NewMockPort([]byte("PC005;"))
	s := NewWithPort(Config{}, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RoundTrip(ctx, []byte("PC;"), ';', 0)
	assert.Error(t, err)

	// Session is usable for the next call after a cancellation.
	resp, err := s.RoundTrip(context.Background(), []byte("PC;"), ';', time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PC005;", string(resp))
}

func TestRoundTrip_SerializesCallers(t *testing.T) {
	mock := NewMockPort([]byte("A;"), []byte("B;"))
	s := NewWithPort(Config{}, mock)

	done := make(chan struct{})
	go func() {
		_, _ = s.RoundTrip(context.Background(), []byte("1;"), ';', 0)
		done <- struct{}{}
	}()
	_, err := s.RoundTrip(context.Background(), []byte("2;"), ';', 0)
	require.NoError(t, err)
	<-done

	assert.Len(t, mock.Written, 2)
}

func TestSend_NoResponseRead(t *testing.T) {
	mock := NewMockPort()
	s := NewWithPort(Config{}, mock)

	err := s.Send(context.Background(), []byte("TX;"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("TX;")}, mock.Written)
	assert.Equal(t, 0, mock.ReadCount)
}

func TestSend_NotConnected(t *testing.T) {
	s := New(Config{Device: "/dev/null"})
	err := s.Send(context.Background(), []byte("x"))
	assert.Error(t, err)
}

func TestLoopbackPort_RealFileDescriptors(t *testing.T) {
	lp, err := NewLoopbackPort()
	require.NoError(t, err)
	defer lp.Close()

	s := NewWithPort(Config{}, lp)

	go func() {
		buf := make([]byte, 3)
		_, _ = lp.Peer().Read(buf)
		_, _ = lp.Peer().Write([]byte("OK;"))
	}()

	resp, err := s.RoundTrip(context.Background(), []byte("PC;"), ';', 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "OK;", string(resp))
}
