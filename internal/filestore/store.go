// Package filestore keeps the most recent payload uploaded under each file name.
package filestore

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("filestore: file not found")

// Store is last-write-wins: Get returns exactly the bytes of the latest Put
// for a name. Implementations are safe for concurrent use.
type Store interface {
	Put(name string, payload []byte) error
	Get(name string) ([]byte, error)
	Close() error
}

// Memory is a mutex-guarded map. Entries live until the process exits.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Put(name string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)

	m.mu.Lock()
	m.files[name] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(name string) ([]byte, error) {
	m.mu.RLock()
	payload, ok := m.files[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, nil
}

func (m *Memory) Close() error { return nil }
