package authflowrepo

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	ErrEmptyState    = errors.New("state cannot be empty")
	ErrNilAuthState  = errors.New("authState cannot be nil")
	ErrStateNotFound = errors.New("state not found")
)

// CacheRepo keeps auth flow states in a TTL cache so abandoned sign-ins expire on their own.
type CacheRepo struct {
	states *cache.Cache
}

var _ Repo = (*CacheRepo)(nil)

// NewCacheRepo creates a repo whose entries expire after ttl.
func NewCacheRepo(ttl time.Duration) *CacheRepo {
	return &CacheRepo{
		states: cache.New(ttl, 2*ttl),
	}
}

func (r *CacheRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return ErrEmptyState
	}
	if authState == nil {
		return ErrNilAuthState
	}

	// Store a copy to prevent external modifications
	c := *authState
	r.states.Set(state, &c, cache.DefaultExpiration)
	return nil
}

func (r *CacheRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrEmptyState
	}

	v, ok := r.states.Get(state)
	if !ok {
		return nil, ErrStateNotFound
	}
	//nolint:forcetypeassert
	c := *v.(*AuthFlowState)
	return &c, nil
}

func (r *CacheRepo) Delete(state string) error {
	if state == "" {
		return ErrEmptyState
	}
	r.states.Delete(state)
	return nil
}
