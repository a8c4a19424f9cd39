package rigctld

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/rigctl"
	"github.com/kd9vec/gorigd/serial"
)

func newTestServer(t *testing.T, model rig.ModelID, responses ...[]byte) *Server {
	t.Helper()
	mock := serial.NewMockPort(responses...)
	sess := serial.NewWithPort(serial.Config{}, mock)
	ctrl, err := rigctl.NewWithSession(model, sess)
	require.NoError(t, err)
	return NewServer(ctrl)
}

// runLine feeds one line through dispatchLine and returns whatever was
// written back to the session's connection.
func runLine(t *testing.T, s *Server, sess *session, line string) string {
	t.Helper()
	client, server := net.Pipe()
	sess.conn = server

	done := make(chan struct{})
	go func() {
		s.dispatchLine(context.Background(), sess, line)
		server.Close()
		close(done)
	}()

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	<-done
	return string(out)
}

func TestDispatch_ShortAndLongFreqFormsMatchInDefaultMode(t *testing.T) {
	s := newTestServer(t, rig.ModelK3, []byte("FA00014230000;"))
	sess := &session{vfo: rig.VFOA}

	shortOut := runLine(t, s, sess, "f")
	longOut := runLine(t, s, sess, `\get_freq`)

	assert.Equal(t, shortOut, longOut)
	assert.Equal(t, "14230000\n", shortOut)
}

func TestDispatch_ShortAndLongSetFreqMatch(t *testing.T) {
	for _, line := range []string{"F 7125000", `\set_freq 7125000`} {
		s := newTestServer(t, rig.ModelK3)
		sess := &session{vfo: rig.VFOA}
		out := runLine(t, s, sess, line)
		assert.Equal(t, "", out, "set_freq default mode prints nothing on success")
	}
}

func TestDispatch_ExtendedModeEchoesLongNameAndReturnCode(t *testing.T) {
	s := newTestServer(t, rig.ModelK3, []byte("FA00014230000;"))
	sess := &session{vfo: rig.VFOA, extended: true}

	out := runLine(t, s, sess, "f")
	assert.Equal(t, "get_freq:\n14230000\nRPRT 0\n", out)
}

func TestDispatch_UnknownCommandReturnsNotImplemented(t *testing.T) {
	s := newTestServer(t, rig.ModelK3)
	sess := &session{vfo: rig.VFOA}

	out := runLine(t, s, sess, "Z")
	assert.Equal(t, "-4\n", out)
}

func TestDispatch_SetSplitFreqIsRecognizedButNotImplemented(t *testing.T) {
	s := newTestServer(t, rig.ModelK3)
	sess := &session{vfo: rig.VFOA}

	out := runLine(t, s, sess, "I 7125000")
	assert.Equal(t, "-4\n", out)
}

func TestDispatch_CapabilityErrorMapsToRigerrCode(t *testing.T) {
	s := newTestServer(t, rig.ModelIC7300)
	sess := &session{vfo: rig.VFOMain}

	out := runLine(t, s, sess, "v")
	assert.Equal(t, "Main\n", out) // get_vfo never touches the wire, reports the session's own VFO

	out = runLine(t, s, sess, "V Main")
	assert.Equal(t, "-12\n", out, "IC-7300 is Targetable; Main is not a legal selector, rigerr.UnsupportedOperation maps to -12")
}

func TestDispatch_SetLevelUnknownNameNotImplemented(t *testing.T) {
	s := newTestServer(t, rig.ModelIC7300)
	sess := &session{vfo: rig.VFOA}

	out := runLine(t, s, sess, "L BOGUS 1")
	assert.Equal(t, "-4\n", out)
}

func TestDispatch_QuitClosesSession(t *testing.T) {
	s := newTestServer(t, rig.ModelK3)
	sess := &session{vfo: rig.VFOA}
	done := s.dispatchLine(context.Background(), sess, "q")
	assert.True(t, done)
}

func TestDispatch_PowerConversionRoundTrips(t *testing.T) {
	s := newTestServer(t, rig.ModelIC7300)
	sess := &session{vfo: rig.VFOA}

	out := runLine(t, s, sess, "2 1.0")
	assert.Equal(t, "100000\n", out, "IC-7300 reports power as a percentage, so nominalWatts (100W) is full scale")
}
