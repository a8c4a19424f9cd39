package serial

import (
	"os"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// LoopbackPort is a Port backed by a real github.com/creack/pty pair: writes
// to the session side appear for reading on Peer, and vice versa. It lets
// integration tests exercise the session layer's framing and timeout logic
// against real file-descriptor I/O instead of an in-memory fake, with a
// goroutine standing in for the radio on the other end of the pty.
type LoopbackPort struct {
	pty, tty *os.File
}

// NewLoopbackPort opens a pty pair. Peer returns the *os.File a test's fake
// "radio" goroutine should read from / write to.
func NewLoopbackPort() (*LoopbackPort, error) {
	ptyFile, ttyFile, err := pty.Open()
	if err != nil {
		return nil, err
	}
	// A fresh pty starts in canonical mode with echo on; switch the tty side
	// to raw so bytes pass through unbuffered and are not echoed back.
	fd := int(ttyFile.Fd())
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err == nil {
		tio.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
		tio.Iflag &^= unix.ICRNL | unix.IXON
		tio.Oflag &^= unix.OPOST
		err = unix.IoctlSetTermios(fd, unix.TCSETS, tio)
	}
	if err != nil {
		_ = ttyFile.Close()
		_ = ptyFile.Close()
		return nil, err
	}
	return &LoopbackPort{pty: ptyFile, tty: ttyFile}, nil
}

// Peer is the far end of the pty pair, for a test's simulated radio.
func (l *LoopbackPort) Peer() *os.File {
	return l.tty
}

func (l *LoopbackPort) Write(p []byte) (int, error) {
	return l.pty.Write(p)
}

func (l *LoopbackPort) ReadUntil(delim byte, deadline time.Time) ([]byte, error) {
	if !deadline.IsZero() {
		_ = l.pty.SetReadDeadline(deadline)
	}
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := l.pty.Read(buf)
		if n == 1 {
			out = append(out, buf[0])
			if buf[0] == delim {
				return out, nil
			}
			continue
		}
		if err != nil {
			return out, err
		}
	}
}

func (l *LoopbackPort) Flush() error {
	return nil
}

func (l *LoopbackPort) Close() error {
	_ = l.tty.Close()
	return l.pty.Close()
}
