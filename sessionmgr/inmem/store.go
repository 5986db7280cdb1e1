// Package inmem provides an in-memory implementation of sessionmgr.Store.
// It is intended for single-process kernel deployments; nothing here is
// durable across restarts.
package inmem

import (
	"sync"

	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr"
)

// Store is an in-memory implementation of sessionmgr.Store. Safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionmgr.Session
}

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*sessionmgr.Session)}
}

// Put implements sessionmgr.Store.
func (s *Store) Put(sess *sessionmgr.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

// Get implements sessionmgr.Store.
func (s *Store) Get(id string) (*sessionmgr.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete implements sessionmgr.Store.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// List implements sessionmgr.Store.
func (s *Store) List() []*sessionmgr.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*sessionmgr.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
