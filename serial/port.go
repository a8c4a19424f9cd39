// Package serial provides the single-owner, half-duplex request/response
// transport the controller drives: a Port abstraction over a raw byte
// stream, and a Session that owns one Port and serializes round trips
// through it with timeouts and cancellation.
//
// The real Port implementation wraps github.com/pkg/term, grounded on the
// teacher's src/serial_port.go.
package serial

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// Port is the byte-stream abstraction the session drives. It is the "out of
// scope" serial device collaborator from spec.md §1, made concrete enough to
// implement and mock.
type Port interface {
	Write(p []byte) (int, error)
	// ReadUntil blocks until it has read a byte equal to delim (inclusive)
	// or the deadline passes, returning what it did manage to read either
	// way so a timeout can be reported alongside any partial data.
	ReadUntil(delim byte, deadline time.Time) ([]byte, error)
	Flush() error
	Close() error
}

// termPort adapts github.com/pkg/term's *term.Term to the Port interface.
type termPort struct {
	t  *term.Term
	fd uintptr
}

// Open opens devicename at baud (8N1), flushes it, and returns a ready Port.
// baud of 0 leaves the port's current speed alone, matching the teacher's
// serial_port_open convention.
func Open(devicename string, baud int) (Port, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", devicename, err)
	}

	switch baud {
	case 0:
		// Leave it alone.
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serial: set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		log.Warn("unsupported baud rate, falling back", "requested", baud, "fallback", 4800, "device", devicename)
		if err := t.SetSpeed(4800); err != nil {
			t.Close()
			return nil, fmt.Errorf("serial: set fallback speed on %s: %w", devicename, err)
		}
	}

	p := &termPort{t: t, fd: t.Fd()}
	if err := p.Flush(); err != nil {
		log.Warn("flush on open failed", "device", devicename, "err", err)
	}
	return p, nil
}

func (p *termPort) Write(b []byte) (int, error) {
	return p.t.Write(b)
}

func (p *termPort) ReadUntil(delim byte, deadline time.Time) ([]byte, error) {
	var out []byte
	buf := make([]byte, 1)
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return out, fmt.Errorf("serial: read deadline exceeded")
		}
		n, err := p.t.Read(buf)
		if n == 1 {
			out = append(out, buf[0])
			if buf[0] == delim {
				return out, nil
			}
			continue
		}
		if err != nil {
			return out, fmt.Errorf("serial: read: %w", err)
		}
	}
}

func (p *termPort) Flush() error {
	// TCFLSH on both queues, matching the ioctl-based flush the teacher's
	// RTS/DTR helpers in src/ptt.go use for line control.
	return unix.IoctlSetInt(int(p.fd), unix.TCFLSH, unix.TCIOFLUSH)
}

func (p *termPort) Close() error {
	return p.t.Close()
}
