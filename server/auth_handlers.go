package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/sprinkler-crm/auth"
	"github.com/jrsteele09/sprinkler-crm/backend"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

type loginView struct {
	Route     string   `json:"route"`
	App       string   `json:"app"`
	Providers []string `json:"providers"`
	DevSignIn bool     `json:"devSignIn"`
	Loading   bool     `json:"loading"`
	Error     string   `json:"error,omitempty"`
}

func (s *Server) LoginViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sessions.Snapshot()
		msg := r.URL.Query().Get("error")
		if msg == "" {
			msg = st.Error
		}
		writeJSON(w, http.StatusOK, loginView{
			Route:     RouteNameLogin,
			App:       s.config.GetAppName(),
			Providers: []string{auth.DefaultProvider},
			DevSignIn: s.sessions.DevMode(),
			Loading:   st.Loading,
			Error:     msg,
		})
	}
}

// SignInHandler starts a provider sign-in and sends the browser to the provider.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.PathValue("provider")
		start, err := s.sessions.SignIn(r.Context(), provider, requestOrigin(r))
		if err != nil {
			zerolog.Ctx(r.Context()).Err(err).Str("provider", provider).Msg("Sign in failed")
			redirectWithError(w, r, RouteLogin, apperrors.Message(err, "Authentication failed"))
			return
		}
		redirectTo(w, r, start.URL)
	}
}

// AuthCallbackHandler completes the provider round trip. It is never guarded.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errParam := q.Get("error"); errParam != "" {
			msg := q.Get("error_description")
			if msg == "" {
				msg = errParam
			}
			zerolog.Ctx(r.Context()).Warn().Str("error", errParam).Msg("Provider returned an error")
			redirectWithError(w, r, RouteLogin, msg)
			return
		}

		code, state := q.Get("code"), q.Get(backend.FlowParam)
		if code == "" || state == "" {
			redirectWithError(w, r, RouteLogin, "Missing code or flow parameter")
			return
		}

		if err := s.sessions.CompleteSignIn(r.Context(), code, state); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("Completing sign in failed")
			redirectWithError(w, r, RouteLogin, apperrors.Message(err, "Authentication failed"))
			return
		}
		redirectTo(w, r, mustRoute(RouteNameHome).Path)
	}
}

func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.SignOut(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("Sign out failed")
			redirectWithError(w, r, RouteLogin, apperrors.Message(err, "Sign out failed"))
			return
		}
		redirectTo(w, r, RouteLogin)
	}
}

// DevSignInHandler installs the developer session. Outside dev mode it answers 404.
func (s *Server) DevSignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessions.SignInDev(); err != nil {
			if apperrors.Is(err, apperrors.ErrDevSignInDisabled) {
				http.NotFound(w, r)
				return
			}
			writeError(w, err)
			return
		}
		redirectTo(w, r, mustRoute(RouteNameHome).Path)
	}
}
