// Package rigctld implements the Hamlib-compatible TCP control daemon
// described in spec.md §4.9: a line-oriented protocol, short and long
// command forms, and default/extended response formatting, sitting in
// front of a single rigctl.Controller.
//
// The accept loop and per-connection goroutine are grounded on the
// teacher's own appserver.go/server.go TCP session pattern (one goroutine
// per connection, reading lines and dispatching on the first token),
// generalized here from AX.25-application command words to rigctld's
// command algebra.
package rigctld

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/rigctl"
	"github.com/kd9vec/gorigd/rigerr"
)

// DefaultAddr is the listen address rigctld binds to when none is given,
// matching Hamlib's conventional rigctld port.
const DefaultAddr = ":4532"

// Server accepts rigctld connections and drives a single Controller.
// One session (one goroutine, one net.Conn) is created per accepted
// connection; every session serializes its commands on the Controller,
// which itself serializes on its own session lock, so this never needs a
// lock of its own beyond the bookkeeping map of live sessions.
type Server struct {
	ctrl *rigctl.Controller
	addr string

	advertise     bool
	advertiseName string

	mu       sync.Mutex
	sessions map[*session]struct{}
	listener net.Listener
	wg       sync.WaitGroup
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithListenAddress overrides DefaultAddr.
func WithListenAddress(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithAdvertise enables DNS-SD advertisement of the listening port under
// the given instance name (service type _rigctl._tcp), grounded on the
// teacher's own dns_sd.go use of github.com/brutella/dnssd.
func WithAdvertise(name string) Option {
	return func(s *Server) {
		s.advertise = true
		s.advertiseName = name
	}
}

// NewServer builds a Server around ctrl, which must already be connected.
func NewServer(ctrl *rigctl.Controller, opts ...Option) *Server {
	s := &Server{
		ctrl:     ctrl,
		addr:     DefaultAddr,
		sessions: make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds the listener and runs the accept loop until ctx is
// cancelled, at which point it stops accepting and drains in-flight
// sessions before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rigctld: listen %s: %w", s.addr, err)
	}
	// Matches the teacher's SO_REUSEADDR treatment in server.go: without
	// it, restarting rigctld right after a stop finds the port still
	// held by the kernel's TIME_WAIT bookkeeping.
	if tcpListener, ok := ln.(*net.TCPListener); ok {
		if file, err := tcpListener.File(); err == nil {
			syscall.SetsockoptInt(int(file.Fd()), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			file.Close()
		}
	}
	s.listener = ln
	log.Info("rigctld listening", "addr", s.addr)

	if s.advertise {
		s.startAdvertising()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				log.Error("rigctld accept failed", "err", err)
				return err
			}
		}
		sess := &session{conn: conn, vfo: rig.VFOA}
		s.mu.Lock()
		s.sessions[sess] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.sessions, sess)
				s.mu.Unlock()
			}()
			s.handleSession(ctx, sess)
		}()
	}
}

// Shutdown stops accepting new connections. Sessions already accepted are
// left to drain naturally as ListenAndServe's own ctx-driven close handles
// the listener; Shutdown additionally closes every live connection so a
// caller that wants an immediate stop doesn't have to wait on client
// cooperation.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.Unlock()
}

type session struct {
	conn     net.Conn
	extended bool
	vfo      rig.VFO
}

func (s *Server) handleSession(ctx context.Context, sess *session) {
	defer sess.conn.Close()
	log.Info("rigctld client connected", "remote", sess.conn.RemoteAddr())

	scanner := bufio.NewScanner(sess.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := s.dispatchLine(ctx, sess, line); done {
			return
		}
	}
	log.Info("rigctld client disconnected", "remote", sess.conn.RemoteAddr())
}

// dispatchLine parses and runs one command line, writing its response to
// sess.conn. It returns true if the session should close (q/\quit).
func (s *Server) dispatchLine(ctx context.Context, sess *session, line string) bool {
	fields := strings.Fields(line)
	first := fields[0]
	args := fields[1:]

	var long string
	var spec *commandSpec
	if strings.HasPrefix(first, `\`) {
		long = first[1:]
		spec = longCommands[long]
	} else {
		spec = shortCommands[first]
		if spec != nil {
			long = spec.long
		}
	}

	if long == "quit" {
		return true
	}

	if spec == nil {
		writeResponse(sess.conn, strings.TrimPrefix(first, `\`), sess.extended, nil, errUnknownCommand)
		return false
	}

	lines, err := spec.fn(ctx, s.ctrl, sess, args)
	writeResponse(sess.conn, spec.long, sess.extended, lines, err)
	return false
}

// writeResponse formats one command's result per spec.md §4.9: default mode
// is bare data on success (the return code only appears on error); extended
// mode always echoes "<long>:", the data, then "RPRT <code>".
func writeResponse(w net.Conn, longName string, extended bool, lines []string, err error) {
	code := responseCode(err)
	var b strings.Builder
	if extended {
		fmt.Fprintf(&b, "%s:\n", longName)
		for _, line := range lines {
			fmt.Fprintf(&b, "%s\n", line)
		}
		fmt.Fprintf(&b, "RPRT %d\n", code)
	} else if err != nil {
		fmt.Fprintf(&b, "%d\n", code)
	} else {
		for _, line := range lines {
			fmt.Fprintf(&b, "%s\n", line)
		}
	}
	w.Write([]byte(b.String()))
}

// notImplementedError marks a command this daemon's table recognizes but
// does not back with a Controller operation (e.g. split frequency/mode,
// unknown level names), distinct from rigerr's radio-capability taxonomy.
type notImplementedError string

func (e notImplementedError) Error() string { return string(e) }

var errUnknownCommand = notImplementedError("unknown command")

// responseCode maps err to a rigctld return code: 0 on success, -4 for a
// command this daemon recognizes but doesn't implement, or the rigerr
// taxonomy's mapping for everything else (spec.md §4.10/§7).
func responseCode(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := err.(notImplementedError); ok {
		return -4
	}
	return rigerr.Code(err)
}

func parseInvalidParam(msg string) error {
	return rigerr.New(rigerr.InvalidParameter, "%s", msg)
}
