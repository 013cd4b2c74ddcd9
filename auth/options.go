package auth

import "time"

const (
	// CallbackPath is where the identity provider returns the browser.
	CallbackPath = "/auth/callback"

	// DefaultProvider is the only provider the login page offers.
	DefaultProvider = "google"
)

// StoreOption modifies a Store at construction.
type StoreOption func(*Store)

// WithDevMode enables the developer capability: synthetic sign-in and loopback
// callback addresses. It is resolved once at boot and never changes.
func WithDevMode(enabled bool) StoreOption {
	return func(s *Store) {
		s.devMode = enabled
	}
}

// WithProductionOrigin sets the origin used for OAuth callbacks when the
// request origin is a loopback address outside dev mode.
func WithProductionOrigin(origin string) StoreOption {
	return func(s *Store) {
		s.productionOrigin = origin
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}
