package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/auth"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

type userView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// redirectTo sends the caller to path. htmx callers get an HX-Redirect instead.
func redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError redirects with the message in the error query parameter.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectTo(w, r, path+"?error="+url.QueryEscape(errorMsg))
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Error writing response")
	}
}

// writeError maps a store error onto a status code.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *apperrors.ValidationError
		remote     *apperrors.RemoteOperationError
		authErr    *apperrors.AuthError
	)
	switch {
	case apperrors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Problems: validation.Problems})
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: apperrors.Message(err, "not found")})
	case apperrors.As(err, &remote) && remote.Status >= 400 && remote.Status < 500:
		writeJSON(w, remote.Status, errorResponse{Error: apperrors.Message(err, "request rejected")})
	case apperrors.As(err, &authErr), apperrors.Is(err, apperrors.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: apperrors.Message(err, "not signed in")})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: apperrors.Message(err, "backend unavailable")})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &apperrors.ValidationError{Problems: []string{"Request body must be valid JSON: " + err.Error()}}
	}
	return nil
}

func newUserView(st auth.State) *userView {
	if !st.IsAuthenticated() {
		return nil
	}
	return &userView{ID: st.User.ID, Email: st.UserEmail(), Name: st.UserName(), AvatarURL: st.UserAvatar()}
}

// currentUserID is the signed in user, or ErrNoSession.
func (s *Server) currentUserID() (string, error) {
	st := s.sessions.Snapshot()
	if st.User == nil {
		return "", apperrors.ErrNoSession
	}
	return st.User.ID, nil
}
