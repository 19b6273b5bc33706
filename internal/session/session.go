// Package session keeps the small per-visitor flags a page load consults,
// such as whether web fonts were already fetched during the session.
package session

import (
	"context"
	"errors"
	"sync"
)

// FontsLoadedKey marks a session whose fonts stylesheet has been loaded.
const FontsLoadedKey = "fonts-loaded"

// Sentinel errors for session stores.
var (
	ErrEmptySessionID = errors.New("empty session id")
	ErrUnknownBackend = errors.New("unknown session backend")
	ErrStoreClosed    = errors.New("session store closed")
)

// Store reads and writes string flags scoped to a session id.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Close() error
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
	closed   bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

// Get returns the value of key in the session.
func (m *MemoryStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if sessionID == "" {
		return "", false, ErrEmptySessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrStoreClosed
	}
	v, ok := m.sessions[sessionID][key]
	return v, ok, nil
}

// Set stores value under key in the session.
func (m *MemoryStore) Set(ctx context.Context, sessionID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	values, ok := m.sessions[sessionID]
	if !ok {
		values = make(map[string]string)
		m.sessions[sessionID] = values
	}
	values[key] = value
	return nil
}

// Close drops every session. Later calls fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = nil
	return nil
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)
