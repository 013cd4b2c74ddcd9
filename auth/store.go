package auth

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/backend"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

// Synthetic developer identity.
const (
	DevUserID      = "00000000-0000-0000-0000-00000000de01"
	DevUserEmail   = "developer@localhost"
	DevAccessToken = "dev-access-token"
)

// Store owns the signed in user and session for the process. Build it once at
// boot with NewStore and pass it to everything that needs it.
type Store struct {
	client           backend.AuthClient
	devMode          bool
	productionOrigin string
	nowTime          func() time.Time

	mu         sync.RWMutex
	state      State
	pending    int
	version    uint64 // bumped by every change notification
	devSession bool

	initOnce sync.Once
	initErr  error
	ready    chan struct{}
	sub      backend.Subscription
}

func NewStore(client backend.AuthClient, opts ...StoreOption) *Store {
	s := &Store{
		client:  client,
		nowTime: time.Now,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Initialized = s.Initialized()
	st.Session = st.Session.Clone()
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User != nil
}

func (s *Store) Initialized() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// DevMode reports whether the developer capability was enabled at boot.
func (s *Store) DevMode() bool {
	return s.devMode
}

// Initialize subscribes to session changes and loads the current session. It
// is best effort: failures are recorded in the state, and the store is marked
// initialized in every outcome. Only the first call does any work.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.initialize(ctx)
	})
	return s.initErr
}

func (s *Store) initialize(ctx context.Context) error {
	defer close(s.ready)
	s.begin()
	defer s.end()

	s.sub = s.client.OnAuthStateChange(s.onAuthStateChange)

	s.mu.RLock()
	seen := s.version
	s.mu.RUnlock()

	session, err := s.client.GetSession(ctx)
	if err != nil {
		s.setError(apperrors.Message(err, "Initialization failed"))
		log.Err(err).Msg("Auth initialization error")
		return &apperrors.AuthError{Op: "initialize", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A notification that arrived while loading is newer than what we fetched
	if s.version == seen {
		s.state.Session = session
		s.state.User = userOf(session)
	}
	log.Info().Bool("authenticated", s.state.User != nil).Msg("Auth initialized")
	return nil
}

func (s *Store) onAuthStateChange(event backend.AuthEvent, session *backend.Session) {
	s.mu.Lock()
	s.version++
	s.state.Session = session
	s.state.User = userOf(session)
	s.state.Error = ""
	s.devSession = false
	s.mu.Unlock()

	e := log.Info().Str("event", string(event))
	if session != nil {
		e = e.Str("user", session.User.Email)
	}
	e.Msg("Auth state changed")
}

// Close drops the change subscription.
func (s *Store) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// WaitForInitialization returns once Initialize has finished, or a
// *errors.TimeoutError after timeout. Timing out abandons only the wait.
func (s *Store) WaitForInitialization(ctx context.Context, timeout time.Duration) error {
	select {
	case <-s.ready:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ready:
		return nil
	case <-timer.C:
		return &apperrors.TimeoutError{Op: "auth initialization", After: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CallbackURL is the address the provider should return to. Loopback origins
// are swapped for the production origin unless dev mode is on, so a backend
// configured with a local site URL cannot strand a production sign-in.
func (s *Store) CallbackURL(origin string) string {
	origin = strings.TrimRight(origin, "/")
	if !s.devMode && s.productionOrigin != "" && isLoopback(origin) {
		log.Warn().Str("origin", origin).Str("using", s.productionOrigin).Msg("Loopback origin outside dev mode")
		origin = strings.TrimRight(s.productionOrigin, "/")
	}
	return origin + CallbackPath
}

func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

// SignIn starts a provider sign-in. The browser must be redirected to the
// returned URL; the session arrives later through the change subscription.
func (s *Store) SignIn(ctx context.Context, provider, origin string) (backend.OAuthStart, error) {
	s.begin()
	defer s.end()
	s.setError("")

	start, err := s.client.SignInWithOAuth(ctx, backend.OAuthOptions{
		Provider:   provider,
		RedirectTo: s.CallbackURL(origin),
		QueryParams: map[string]string{
			"access_type": "offline",
			"prompt":      "consent",
		},
	})
	if err != nil {
		s.setError(apperrors.Message(err, "Authentication failed"))
		return backend.OAuthStart{}, &apperrors.AuthError{Op: "signIn", Err: err}
	}
	return start, nil
}

// CompleteSignIn finishes the provider round trip from the callback route.
func (s *Store) CompleteSignIn(ctx context.Context, code, state string) error {
	s.begin()
	defer s.end()
	s.setError("")

	if _, err := s.client.ExchangeCodeForSession(ctx, code, state); err != nil {
		s.setError(apperrors.Message(err, "Authentication failed"))
		return &apperrors.AuthError{Op: "callback", Err: err}
	}
	return nil
}

// SignOut clears the local session first and then, unless the session is the
// synthetic developer one, signs out remotely.
func (s *Store) SignOut(ctx context.Context) error {
	s.begin()
	defer s.end()

	s.mu.Lock()
	wasDev := s.devSession
	s.state.Session = nil
	s.state.User = nil
	s.state.Error = ""
	s.devSession = false
	s.mu.Unlock()

	if wasDev {
		log.Info().Msg("Developer session cleared")
		return nil
	}

	if err := s.client.SignOut(ctx); err != nil {
		s.setError(apperrors.Message(err, "Sign out failed"))
		return &apperrors.AuthError{Op: "signOut", Err: err}
	}
	return nil
}

// SignInDev installs a fixed developer session without contacting the backend.
// It fails with a *errors.ConfigurationError unless dev mode was enabled at boot.
func (s *Store) SignInDev() (*backend.Session, error) {
	if !s.devMode {
		return nil, &apperrors.ConfigurationError{Err: apperrors.ErrDevSignInDisabled}
	}

	session := DevSession()
	s.mu.Lock()
	s.state.Session = session.Clone()
	s.state.User = userOf(session)
	s.state.Error = ""
	s.devSession = true
	s.mu.Unlock()

	log.Warn().Str("user", DevUserEmail).Msg("Signed in with developer session")
	return session, nil
}

// DevSession is the deterministic synthetic session used by SignInDev.
func DevSession() *backend.Session {
	return &backend.Session{
		AccessToken:  DevAccessToken,
		RefreshToken: "",
		TokenType:    "bearer",
		User: backend.User{
			ID:    DevUserID,
			Email: DevUserEmail,
			UserMetadata: backend.UserMetadata{
				FullName: "Developer",
			},
		},
	}
}

func (s *Store) ClearError() {
	s.setError("")
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	s.state.Loading = true
}

func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	s.state.Loading = s.pending > 0
}
