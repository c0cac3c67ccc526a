package chat

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry is the set of live sessions, keyed by connection rather than by
// display name: duplicate names are allowed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Add reports false if the session is already registered or disconnected.
func (r *Registry) Add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.id]; ok || s.State() == StateDisconnected {
		return false
	}
	r.sessions[s.id] = s
	ConnectedClients.Set(float64(len(r.sessions)))
	r.logger.Debug("session added", "session", s.id, "count", len(r.sessions))
	return true
}

// Remove deletes the session and clears its liveness flag under the same lock
// that Snapshot takes, so no snapshot sees a half-removed session. It reports
// whether the session was a member.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.markDisconnected()
	if _, ok := r.sessions[s.id]; !ok {
		return false
	}
	delete(r.sessions, s.id)
	ConnectedClients.Set(float64(len(r.sessions)))
	r.logger.Debug("session removed", "session", s.id, "count", len(r.sessions))
	return true
}

// Snapshot returns the members at call time.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

// Broadcast sends line to every active member except exclude, one recipient at
// a time. Members removed after the snapshot is taken are skipped by Send.
// It returns the number of recipients attempted.
func (r *Registry) Broadcast(line string, exclude *Session) int {
	recipients := lo.Filter(r.Snapshot(), func(s *Session, _ int) bool {
		return s != exclude && s.State() == StateActive
	})
	for _, s := range recipients {
		s.Send(line)
	}
	return len(recipients)
}

// DisplayNames returns the members' names sorted; duplicates are kept.
func (r *Registry) DisplayNames() []string {
	names := lo.Map(r.Snapshot(), func(s *Session, _ int) string {
		return s.Name()
	})
	sort.Strings(names)
	return names
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
