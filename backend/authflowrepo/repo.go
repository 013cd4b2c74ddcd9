package authflowrepo

import "time"

// AuthFlowState is what a PKCE sign-in must remember between the redirect to
// the provider and the callback.
type AuthFlowState struct {
	Provider     string
	CodeVerifier string
	RedirectTo   string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
}
