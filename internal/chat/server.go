package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/andy6609/lan-relay/internal/audit"
	"github.com/andy6609/lan-relay/internal/moderation"
	"github.com/andy6609/lan-relay/internal/protocol"
)

type Server struct {
	addr     string
	logger   *slog.Logger
	router   *Router
	maxLine  int
	listener net.Listener

	mu        sync.Mutex
	running   bool
	stopping  bool
	startedAt time.Time
	wg        sync.WaitGroup
}

type Option func(*Server)

// WithMaxLineBytes bounds a single inbound frame.
func WithMaxLineBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

func NewServer(addr string, router *Router, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:    addr,
		logger:  logger,
		router:  router,
		maxLine: protocol.DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and launches the accept loop. A bind failure is
// returned to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.router.audit.Append(audit.Server("Server started on " + ln.Addr().String()))
	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Stop closes the listener, disconnects every session and waits for their
// cleanup to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.mu.Unlock()

	s.logger.Info("shutting down")
	_ = s.listener.Close()

	for _, sess := range s.router.registry.Snapshot() {
		sess.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.router.audit.Append(audit.Server("Server stopped"))
	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.isStopping() {
				return
			}
			s.logger.Error("accept failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		sess := NewSession(conn, s.maxLine)

		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.router.registry.Add(sess)
		s.wg.Add(1)
		s.mu.Unlock()

		s.logger.Info("client connected", "session", sess.ID(), "addr", sess.RemoteAddr())
		go func() {
			defer s.wg.Done()
			sess.Serve(s.router)
		}()
	}
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.stopping
}

func (s *Server) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Server) OnlineCount() int { return s.router.registry.Count() }

func (s *Server) DisplayNames() []string { return s.router.registry.DisplayNames() }

func (s *Server) MessageCount() int64 { return s.router.audit.MessageCount() }

func (s *Server) BannedWords() []string { return s.router.filter.Words() }

// AddBannedWord takes effect for the next routed message.
func (s *Server) AddBannedWord(word string) error {
	word = moderation.Normalize(word)
	changed, err := s.router.filter.Add(word)
	if err != nil {
		return err
	}
	if changed {
		s.router.audit.Append(audit.BannedWordAdded(word))
		s.logger.Info("banned word added", "word", word)
	}
	return nil
}

func (s *Server) RemoveBannedWord(word string) error {
	word = moderation.Normalize(word)
	changed, err := s.router.filter.Remove(word)
	if err != nil {
		return err
	}
	if changed {
		s.router.audit.Append(audit.BannedWordRemoved(word))
		s.logger.Info("banned word removed", "word", word)
	}
	return nil
}
