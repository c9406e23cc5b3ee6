// Package controlplane hosts the control-plane WebSocket server: a
// text-JSON endpoint bound to 127.0.0.1 that accepts
// devices/profiles/audio-devices/shutdown messages and pushes parsed
// protocol.Command values to the render service orchestrator.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lumos-project/lumos/internal/protocol"
)

// DefaultPort is the default control-plane bind port.
const DefaultPort = 9901

// Server accepts WebSocket connections on 127.0.0.1:<port> and decodes
// each text frame as one control-plane message. Successfully parsed
// messages are pushed onto Commands(); per-entry parse errors are logged
// and the offending entry is skipped without failing the rest of the
// message.
type Server struct {
	port int

	httpServer *http.Server
	listener   net.Listener

	commands chan protocol.Command

	// connCtx outlives any single request: websocket connections are
	// hijacked from the http.Server, so Shutdown neither waits for them nor
	// cancels their reads. Stop cancels connCtx and waits on connWG before
	// closing the commands channel.
	connCtx    context.Context
	connCancel context.CancelFunc
	connWG     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewServer creates a Server bound to port. Port 0 binds an ephemeral
// port (the tests use this); Addr reports the resolved address.
func NewServer(port int) *Server {
	if port < 0 {
		port = DefaultPort
	}
	return &Server{
		port:     port,
		commands: make(chan protocol.Command, 16),
	}
}

// Commands returns the channel of parsed control-plane commands. Never
// closed while the server is running; Stop closes it once every
// connection handler has returned.
func (s *Server) Commands() <-chan protocol.Command {
	return s.commands
}

// Start begins listening and accepting connections. Non-blocking: serving
// happens on a background goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("controlplane: listen on %s: %w", addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  0, // WebSocket connections are long-lived by design.
	}
	s.connCtx, s.connCancel = context.WithCancel(context.Background())
	s.running = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("controlplane: server error: %v", err)
		}
	}()

	log.Printf("controlplane: listening on ws://%s", addr)
	return nil
}

// Stop gracefully shuts the server down, closing the Commands channel once
// every connection handler has returned.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	server := s.httpServer
	connCancel := s.connCancel
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(ctx)
	connCancel()
	s.connWG.Wait()
	close(s.commands)
	if err != nil {
		return fmt.Errorf("controlplane: shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound TCP address, or nil if not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ctx := s.connCtx
	s.connWG.Add(1)
	s.mu.Unlock()
	defer s.connWG.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("controlplane: failed to accept connection: %v", err)
		return
	}
	defer conn.CloseNow()

	log.Printf("controlplane: client connected from %s", r.RemoteAddr)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("controlplane: client %s disconnected: %v", r.RemoteAddr, err)
			}
			return
		}

		cmd, entryErrs, err := protocol.Parse(data)
		if err != nil {
			log.Printf("controlplane: malformed message from %s: %v", r.RemoteAddr, err)
			continue
		}
		for _, e := range entryErrs {
			log.Printf("controlplane: skipping invalid entry from %s: %v", r.RemoteAddr, e)
		}

		select {
		case s.commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
}
