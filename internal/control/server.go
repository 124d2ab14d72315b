package control

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
)

// State reports a listener lifecycle transition.
type State int

const (
	StateStarting State = iota
	StateReady
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Server accepts control connections and serves each on its own
// goroutine. Bind or accept failures are terminal for the server;
// failures inside one connection never are.
type Server struct {
	caps   Capabilities
	info   Info
	notify func(State)

	mu   sync.Mutex
	port int
}

// NewServer creates a server over the given immutable snapshot and
// capabilities. notify may be nil.
func NewServer(info Info, caps Capabilities, notify func(State)) *Server {
	return &Server{caps: caps, info: info, notify: notify}
}

// BoundPort returns the port the listener actually bound, or 0 before
// Serve has reached the ready state.
func (s *Server) BoundPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Serve binds port (0 picks any free port), publishes the bound port
// through the window-label side channel, and accepts connections until
// ctx is cancelled. It returns nil on cancellation and an error on a
// bind or accept failure; there is no automatic rebind.
func (s *Server) Serve(ctx context.Context, port int) error {
	s.state(StateStarting)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		s.state(StateFailed)
		return fmt.Errorf("bind port %d: %w", port, err)
	}

	bound := ln.Addr().(*net.TCPAddr).Port
	s.mu.Lock()
	s.port = bound
	s.mu.Unlock()

	s.caps.Display.SetWindowLabel(fmt.Sprintf("%s [:%d]", s.info.Label, bound))
	log.Printf("Control server listening on port %d", bound)
	s.state(StateReady)

	// Unblock Accept when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.state(StateCancelled)
				return nil
			}
			s.state(StateFailed)
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) state(st State) {
	if s.notify != nil {
		s.notify(st)
	}
}
