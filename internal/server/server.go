// Package server accepts TCP connections and drives one request per
// connection through framing, parsing, routing and the response write.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"wirehttp/internal/config"
	"wirehttp/internal/framing"
	"wirehttp/internal/logging"
	"wirehttp/internal/router"
	"wirehttp/internal/storage"
)

// ErrServerClosed is returned by Start after Shutdown
var ErrServerClosed = errors.New("server closed")

// Journal records served requests
type Journal interface {
	Record(e storage.Entry) error
}

// Server represents the wirehttp listener
type Server struct {
	addr    string
	router  *router.Router
	logger  *logging.Logger
	journal Journal
	opts    framing.Options

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
	ready    chan struct{}
	wg       sync.WaitGroup
}

// New creates a server for cfg's address and framing limits. journal may be
// nil to disable journaling.
func New(cfg *config.Config, r *router.Router, logger *logging.Logger, journal Journal) *Server {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Server{
		addr:    cfg.Addr(),
		router:  r,
		logger:  logger,
		journal: journal,
		opts: framing.Options{
			BufferSize: cfg.Server.ReadBufferSize,
			MaxBytes:   cfg.Server.MaxRequestBytes,
		},
		conns: make(map[net.Conn]struct{}),
		ready: make(chan struct{}),
	}
}

// Start listens on the configured address and serves until Shutdown. It
// returns ErrServerClosed after a shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	close(s.ready)
	s.mu.Unlock()

	s.logger.Info("Starting server", map[string]interface{}{
		"addr":   l.Addr().String(),
		"routes": s.router.Len(),
	})

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosing() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("Accept timeout", map[string]interface{}{"error": err.Error()})
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.track(conn) {
			conn.Close()
			return ErrServerClosed
		}
		go s.handle(conn)
	}
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address once listening, otherwise the configured one
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops accepting and waits for in-flight connections. When ctx
// expires first, the remaining connections are closed and ctx's error is
// returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", nil)

	s.mu.Lock()
	s.closing = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		<-done
		return ctx.Err()
	}

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("Server shut down successfully", nil)
	return nil
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// track registers conn; it reports false once shutdown has begun
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}
