package chat

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/andy6609/lan-relay/internal/audit"
	"github.com/andy6609/lan-relay/internal/protocol"
)

// Session is the server side of one client connection.
type Session struct {
	id     uuid.UUID
	conn   net.Conn
	reader *protocol.Reader
	sink   *lineSink

	mu   sync.RWMutex
	name string

	state     atomic.Int32
	closeOnce sync.Once
}

func NewSession(conn net.Conn, maxLineBytes int) *Session {
	s := &Session{
		id:     uuid.New(),
		conn:   conn,
		reader: protocol.NewReader(conn, maxLineBytes),
		sink:   newLineSink(conn),
		name:   DefaultName,
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) RemoteAddr() string {
	if s.conn == nil || s.conn.RemoteAddr() == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}

// Send writes one line to the client. It is a no-op unless the session is
// active. A failed write closes the connection so the read loop cleans up.
func (s *Session) Send(line string) {
	if s.State() != StateActive {
		return
	}
	if err := s.sink.writeLine(line); err != nil {
		s.Close()
	}
}

// Close closes the transport. Deregistration is left to the read loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

func (s *Session) markDisconnected() {
	s.state.Store(int32(StateDisconnected))
}

// handshake reads the display name and sends the welcome line. It reports
// false when the client went away before naming itself.
func (s *Session) handshake() bool {
	line, err := s.reader.ReadLine()
	if err != nil {
		return false
	}
	name := strings.TrimSpace(line)
	if r := []rune(name); len(r) > MaxNameRunes {
		name = strings.TrimSpace(string(r[:MaxNameRunes]))
	}
	if name == "" {
		name = DefaultName
	}
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()

	// Activate under the sink lock so the welcome line precedes any broadcast.
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		return false
	}
	return s.sink.w.WriteLine(welcomeLine(name)) == nil
}

// Serve runs the session until the client quits, the transport fails or the
// session is closed, then deregisters it exactly once.
func (s *Session) Serve(r *Router) {
	defer func() {
		s.Close()
		if r.registry.Remove(s) {
			r.audit.Append(audit.Disconnected(s.Name()))
			r.logger.Info("client disconnected", "session", s.id, "name", s.Name())
		}
	}()

	if !s.handshake() {
		return
	}
	r.audit.Append(audit.Connected(s.Name()))
	r.logger.Info("client registered", "session", s.id, "name", s.Name(), "addr", s.RemoteAddr())

	for {
		line, err := s.reader.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				r.logger.Debug("session read failed", "session", s.id, "error", err)
			}
			return
		}
		if quit := r.Route(s, line); quit {
			return
		}
	}
}
