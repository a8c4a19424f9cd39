package serial

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kd9vec/gorigd/rigerr"
)

// DefaultTimeout is the minimum per-operation round-trip timeout, spec.md
// §4.2: "Default per-op timeout >= 500 ms".
const DefaultTimeout = 500 * time.Millisecond

// State is the session lifecycle, spec.md §3.
type State int

const (
	Disconnected State = iota
	Connected
)

// Config describes how to open a session's underlying port.
type Config struct {
	Device string
	Baud   int
	// EchoesCommands, when true, makes RoundTrip read and discard one echo
	// of the outgoing payload before awaiting the real response, per
	// spec.md §4.2/§4.5's per-model command-echo quirk.
	EchoesCommands bool
}

// Session owns exactly one Port and serializes callers on it. At most one
// RoundTrip is ever in flight; concurrent callers wait on the mutex, which
// does not guarantee FIFO order, spec.md §5.
type Session struct {
	mu    sync.Mutex
	port  Port
	state State
	cfg   Config

	// lastFatal is set when a round trip fails with a fatal device error,
	// to support the "a second fatal in a row may be reported" contract
	// in spec.md §4.2 without forcing an automatic disconnect.
	lastFatal bool

	// openFunc is overridable in tests to avoid touching a real device.
	openFunc func(device string, baud int) (Port, error)
}

// New constructs a Session that will open ports with Open (the real
// pkg/term-backed implementation) unless overridden.
func New(cfg Config) *Session {
	return &Session{cfg: cfg, openFunc: Open, state: Disconnected}
}

// NewWithPort constructs a Session already bound to an open Port, useful for
// tests that hand it a loopback or mock Port directly.
func NewWithPort(cfg Config, port Port) *Session {
	return &Session{cfg: cfg, port: port, state: Connected, openFunc: Open}
}

// Connect opens the underlying port per s.cfg and flushes it.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Connected {
		return nil
	}
	p, err := s.openFunc(s.cfg.Device, s.cfg.Baud)
	if err != nil {
		return rigerr.New(rigerr.SerialPortError, "%v", err)
	}
	s.port = p
	s.state = Connected
	s.lastFatal = false
	return nil
}

// Disconnect closes the port and releases the session for reuse.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.state = Disconnected
	if err != nil {
		return rigerr.New(rigerr.SerialPortError, "%v", err)
	}
	return nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send writes payload and returns without awaiting a response, for wire
// commands that never produce one (Elecraft K-series set commands, spec.md
// §4.4: "Set commands do not echo"). It still serializes on the session
// mutex and respects cancellation.
func (s *Session) Send(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected {
		return rigerr.New(rigerr.NotConnected, "send attempted while disconnected")
	}
	if ctx.Err() != nil {
		return rigerr.New(rigerr.Timeout, "cancelled before write: %v", ctx.Err())
	}
	if _, err := s.port.Write(payload); err != nil {
		s.lastFatal = true
		return rigerr.New(rigerr.SerialPortError, "write: %v", err)
	}
	s.lastFatal = false
	return nil
}

// RoundTrip writes payload, then awaits a response terminated by terminator,
// within timeout (or DefaultTimeout if timeout is 0 or below the floor). It
// holds the session's mutex for the whole exchange, so concurrent callers on
// the same session serialize here. Cancellation via ctx surfaces as a
// rigerr.Timeout and leaves the session usable for the next caller.
func (s *Session) RoundTrip(ctx context.Context, payload []byte, terminator byte, timeout time.Duration) ([]byte, error) {
	if timeout < DefaultTimeout {
		timeout = DefaultTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected {
		return nil, rigerr.New(rigerr.NotConnected, "round trip attempted while disconnected")
	}

	if ctx.Err() != nil {
		return nil, rigerr.New(rigerr.Timeout, "cancelled before write: %v", ctx.Err())
	}

	if _, err := s.port.Write(payload); err != nil {
		s.lastFatal = true
		return nil, rigerr.New(rigerr.SerialPortError, "write: %v", err)
	}

	deadline := time.Now().Add(timeout)

	if s.cfg.EchoesCommands {
		echo, err := s.readWithContext(ctx, terminator, deadline)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(bytes.TrimRight(echo, string(terminator)), bytes.TrimRight(payload, string(terminator))) {
			// Quietly proceed: some models echo a slightly different
			// framing (e.g. no terminator echoed back). We only use
			// this read to consume the echo from the wire.
			_ = echo
		}
	}

	resp, err := s.readWithContext(ctx, terminator, deadline)
	if err != nil {
		s.lastFatal = true
		return nil, err
	}
	s.lastFatal = false
	return resp, nil
}

func (s *Session) readWithContext(ctx context.Context, terminator byte, deadline time.Time) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := s.port.ReadUntil(terminator, deadline)
		ch <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, rigerr.New(rigerr.Timeout, "cancelled: %v", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return r.data, rigerr.New(rigerr.Timeout, "%v", r.err)
		}
		return r.data, nil
	}
}

// Flush discards any buffered input/output on the port, e.g. after a
// cancellation, so stale bytes from a partial exchange don't corrupt the
// next RoundTrip (spec.md §8 invariant #7).
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return fmt.Errorf("serial: flush while disconnected")
	}
	return s.port.Flush()
}
