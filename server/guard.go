package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/internal/metrics"
)

// SessionState is what the guard needs from the session store.
type SessionState interface {
	WaitForInitialization(ctx context.Context, timeout time.Duration) error
	IsAuthenticated() bool
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow bool
	// RedirectTo names the route to send the caller to when Allow is false.
	RedirectTo string
	// TimedOut is set when the session store was still initializing.
	TimedOut bool
	Outcome  string
}

// Guard decides whether a navigation to route may proceed. The callback route
// is always reachable. If the session store does not finish initializing
// within timeout the guard fails open and judges the state as it stands.
func Guard(ctx context.Context, route Route, sessions SessionState, timeout time.Duration) Decision {
	if route.Name == RouteNameAuthCallback {
		return Decision{Allow: true, Outcome: metrics.OutcomeBypass}
	}

	var d Decision
	if err := sessions.WaitForInitialization(ctx, timeout); err != nil {
		d.TimedOut = true
		log.Warn().Err(err).Str("route", route.Name).Msg("Auth initialization incomplete, continuing with current state")
	}
	authenticated := sessions.IsAuthenticated()

	switch {
	case route.RequiresAuth && !authenticated:
		d.RedirectTo = RouteNameLogin
		d.Outcome = metrics.OutcomeRedirectLogin
	case route.Name == RouteNameLogin && authenticated:
		d.RedirectTo = RouteNameHome
		d.Outcome = metrics.OutcomeRedirectHome
	default:
		d.Allow = true
		d.Outcome = metrics.OutcomeAllow
		if d.TimedOut {
			d.Outcome = metrics.OutcomeInitTimeoutOpen
		}
	}
	return d
}

// GuardMiddleware applies Guard for route before the handler runs.
func (s *Server) GuardMiddleware(route Route) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := Guard(r.Context(), route, s.sessions, s.initTimeout)
			s.metrics.GuardDecision(route.Name, d.Outcome)
			if !d.Allow {
				target := mustRoute(d.RedirectTo)
				redirectTo(w, r, target.Path)
				return
			}
			next(w, r)
		}
	}
}
