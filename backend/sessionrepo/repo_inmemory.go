package sessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

// InMemoryRepo keeps sessions for the lifetime of the process.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*backend.Session
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*backend.Session),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, key string, session *backend.Session) error {
	if key == "" {
		return ErrKeyMissing
	}
	if session == nil {
		return ErrNilSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	r.sessions[key] = session.Clone()
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, key string) (*backend.Session, error) {
	if key == "" {
		return nil, ErrKeyMissing
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}
	return session.Clone(), nil
}

func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyMissing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, key) // Already doesn't exist, no error
	return nil
}
