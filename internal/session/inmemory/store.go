// Package inmemory provides a process-lifetime session store.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/pharmainsight/internal/session"
)

// Store is an in-memory implementation of session.Store.
// Sessions are never evicted; data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
	}
}

// Get implements session.Store. The returned value is a copy; tables are shared read-only.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("Get: %s: %w", id, session.ErrNotFound)
	}

	sessCopy := *sess
	return &sessCopy, nil
}

// Put implements session.Store.
func (s *Store) Put(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("Put: session ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessCopy := *sess
	s.sessions[sess.ID] = &sessCopy
	return nil
}

// Exists implements session.Store.
func (s *Store) Exists(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[id]
	return ok
}

// Len implements session.Store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

var _ session.Store = (*Store)(nil)
