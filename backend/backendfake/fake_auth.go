package backendfake

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

var _ backend.AuthClient = (*FakeAuth)(nil)

// FakeAuth is an in-memory backend.AuthClient. Errors set on it are returned by
// the matching call.
type FakeAuth struct {
	lock      sync.Mutex
	session   *backend.Session
	listeners []backend.StateChangeFunc
	dispatch  sync.Mutex

	GetSessionErr error
	SignInErr     error
	ExchangeErr   error
	SignOutErr    error
	// GetSessionGate, when set, blocks GetSession until it is closed.
	GetSessionGate chan struct{}

	calls map[string]int
	// LastOAuth holds the options of the most recent SignInWithOAuth call.
	LastOAuth backend.OAuthOptions
}

func NewFakeAuth() *FakeAuth {
	return &FakeAuth{calls: make(map[string]int)}
}

// SetSession seeds the stored session without notifying listeners.
func (f *FakeAuth) SetSession(s *backend.Session) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.session = s.Clone()
}

// Calls returns how often the named method was invoked.
func (f *FakeAuth) Calls(method string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[method]
}

// Subscribers returns the number of registered listeners.
func (f *FakeAuth) Subscribers() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.listeners)
}

func (f *FakeAuth) record(method string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls[method]++
}

func (f *FakeAuth) GetSession(ctx context.Context) (*backend.Session, error) {
	f.record("GetSession")
	if f.GetSessionGate != nil {
		select {
		case <-f.GetSessionGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.session.Clone(), nil
}

func (f *FakeAuth) SignInWithOAuth(_ context.Context, opts backend.OAuthOptions) (backend.OAuthStart, error) {
	f.record("SignInWithOAuth")
	f.lock.Lock()
	f.LastOAuth = opts
	f.lock.Unlock()
	if f.SignInErr != nil {
		return backend.OAuthStart{}, f.SignInErr
	}
	state := uuid.NewString()
	return backend.OAuthStart{
		Provider: opts.Provider,
		URL:      "https://fake.supabase.co/auth/v1/authorize?provider=" + opts.Provider + "&state=" + state,
		State:    state,
	}, nil
}

func (f *FakeAuth) ExchangeCodeForSession(_ context.Context, code, state string) (*backend.Session, error) {
	f.record("ExchangeCodeForSession")
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	s := &backend.Session{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		TokenType:    "bearer",
		User:         backend.User{ID: "user-" + code, Email: code + "@example.com"},
	}
	f.SetSession(s)
	f.Emit(backend.EventSignedIn, s)
	return s.Clone(), nil
}

func (f *FakeAuth) SignOut(_ context.Context) error {
	f.record("SignOut")
	f.SetSession(nil)
	f.Emit(backend.EventSignedOut, nil)
	return f.SignOutErr
}

func (f *FakeAuth) OnAuthStateChange(fn backend.StateChangeFunc) backend.Subscription {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return unsubscribeFunc(func() {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.listeners[idx] = nil
	})
}

// Emit delivers a change notification to every listener, in order.
func (f *FakeAuth) Emit(event backend.AuthEvent, s *backend.Session) {
	f.dispatch.Lock()
	defer f.dispatch.Unlock()

	f.lock.Lock()
	fns := append([]backend.StateChangeFunc(nil), f.listeners...)
	f.lock.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn(event, s.Clone())
		}
	}
}

type unsubscribeFunc func()

func (u unsubscribeFunc) Unsubscribe() { u() }
