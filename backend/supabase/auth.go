package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/backend/authflowrepo"
	"github.com/jrsteele09/sprinkler-crm/backend/sessionrepo"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         backend.User `json:"user"`
}

// GetSession returns the persisted session, refreshing it when the access token
// has lapsed. It returns nil without error when nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	session, err := c.sessions.Get(ctx, c.storageKey)
	if errors.Is(err, sessionrepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.RemoteOperationError{Op: "getSession", Err: err, Message: err.Error()}
	}

	if !session.Expired(c.now(), expirySkew) {
		return session, nil
	}
	if session.RefreshToken == "" {
		log.Info().Str("user", session.User.Email).Msg("Session expired without refresh token")
		if err := c.sessions.Delete(ctx, c.storageKey); err != nil {
			log.Err(err).Msg("Failed to remove expired session")
		}
		return nil, nil
	}

	// Concurrent callers share one refresh per refresh token
	v, err, _ := c.refreshes.Do(session.RefreshToken, func() (any, error) {
		return c.refresh(ctx, session.RefreshToken)
	})
	if err != nil {
		return nil, err
	}
	//nolint:forcetypeassert
	return v.(*backend.Session).Clone(), nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		op:     "refreshSession",
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tr)
	if err != nil {
		return nil, err
	}

	session, err := c.sessionFromToken(ctx, tr)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Upsert(ctx, c.storageKey, session); err != nil {
		return nil, &apperrors.RemoteOperationError{Op: "refreshSession", Err: err, Message: err.Error()}
	}
	c.listeners.emit(backend.EventTokenRefreshed, session)
	return session, nil
}

// SignInWithOAuth prepares a PKCE authorization for the provider. The caller
// must send the browser to the returned URL.
func (c *Client) SignInWithOAuth(_ context.Context, opts backend.OAuthOptions) (backend.OAuthStart, error) {
	if opts.Provider == "" {
		return backend.OAuthStart{}, &apperrors.RemoteOperationError{Op: "signInWithOAuth", Message: "provider is required"}
	}
	redirect, err := url.Parse(opts.RedirectTo)
	if err != nil || redirect.Scheme == "" || redirect.Host == "" {
		return backend.OAuthStart{}, &apperrors.RemoteOperationError{Op: "signInWithOAuth", Err: err, Message: "invalid redirect address"}
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	q := redirect.Query()
	q.Set(backend.FlowParam, state)
	redirect.RawQuery = q.Encode()

	err = c.authFlows.Upsert(state, &authflowrepo.AuthFlowState{
		Provider:     opts.Provider,
		CodeVerifier: verifier,
		RedirectTo:   redirect.String(),
		CreatedAt:    c.now(),
	})
	if err != nil {
		return backend.OAuthStart{}, &apperrors.RemoteOperationError{Op: "signInWithOAuth", Err: err, Message: err.Error()}
	}

	params := url.Values{}
	params.Set("provider", opts.Provider)
	params.Set("redirect_to", redirect.String())
	params.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	params.Set("code_challenge_method", "s256")
	for k, v := range opts.QueryParams {
		params.Set(k, v)
	}

	return backend.OAuthStart{
		Provider: opts.Provider,
		URL:      c.baseURL + authPath + "/authorize?" + params.Encode(),
		State:    state,
	}, nil
}

// ExchangeCodeForSession completes a PKCE sign-in started by SignInWithOAuth.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, state string) (*backend.Session, error) {
	if code == "" {
		return nil, &apperrors.RemoteOperationError{Op: "exchangeCode", Message: "missing authorization code"}
	}
	flow, err := c.authFlows.Get(state)
	if err != nil {
		return nil, &apperrors.RemoteOperationError{Op: "exchangeCode", Err: apperrors.ErrInvalidState, Message: apperrors.ErrInvalidState.Error()}
	}
	// Codes are single use
	if err := c.authFlows.Delete(state); err != nil {
		log.Err(err).Msg("Failed to remove auth flow state")
	}

	var tr tokenResponse
	err = c.do(ctx, request{
		op:     "exchangeCode",
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"pkce"}},
		body:   map[string]string{"auth_code": code, "code_verifier": flow.CodeVerifier},
	}, &tr)
	if err != nil {
		return nil, err
	}

	session, err := c.sessionFromToken(ctx, tr)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Upsert(ctx, c.storageKey, session); err != nil {
		return nil, &apperrors.RemoteOperationError{Op: "exchangeCode", Err: err, Message: err.Error()}
	}

	log.Info().Str("provider", flow.Provider).Str("user", session.User.Email).Msg("Signed in")
	c.listeners.emit(backend.EventSignedIn, session)
	return session.Clone(), nil
}

// SignOut revokes the session remotely and forgets it locally. The local copy
// is removed even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	session, err := c.sessions.Get(ctx, c.storageKey)
	if err != nil && !errors.Is(err, sessionrepo.ErrNotFound) {
		log.Err(err).Msg("Failed to load session for sign out")
	}

	var remoteErr error
	if session != nil && session.AccessToken != "" {
		remoteErr = c.do(ctx, request{
			op:     "signOut",
			method: http.MethodPost,
			path:   authPath + "/logout",
			query:  url.Values{"scope": {"global"}},
			bearer: session.AccessToken,
		}, nil)
		var remote *apperrors.RemoteOperationError
		// The session is already gone on the server
		if errors.As(remoteErr, &remote) && (remote.Status == http.StatusUnauthorized || remote.Status == http.StatusNotFound) {
			remoteErr = nil
		}
	}

	if err := c.sessions.Delete(ctx, c.storageKey); err != nil {
		log.Err(err).Msg("Failed to delete persisted session")
	}
	c.listeners.emit(backend.EventSignedOut, nil)
	return remoteErr
}

// OnAuthStateChange registers fn for session change notifications. Notifications
// are delivered one at a time in the order they happen.
func (c *Client) OnAuthStateChange(fn backend.StateChangeFunc) backend.Subscription {
	return c.listeners.add(fn)
}

func (c *Client) sessionFromToken(ctx context.Context, tr tokenResponse) (*backend.Session, error) {
	if tr.AccessToken == "" {
		return nil, &apperrors.RemoteOperationError{Op: "session", Message: "token response without access token"}
	}
	claims, err := c.tokens.inspect(ctx, tr.AccessToken)
	if err != nil {
		return nil, &apperrors.RemoteOperationError{Op: "session", Err: err, Message: fmt.Sprintf("invalid access token: %v", err)}
	}

	session := &backend.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		User:         tr.User,
	}
	switch {
	case tr.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		session.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
	default:
		session.ExpiresAt = claims.expiresAt
	}
	if session.TokenType == "" {
		session.TokenType = "bearer"
	}
	if session.User.ID == "" {
		session.User.ID = claims.subject
	}
	if session.User.Email == "" {
		session.User.Email = claims.email
	}
	if session.User.UserMetadata == (backend.UserMetadata{}) {
		session.User.UserMetadata = claims.metadata
	}
	return session, nil
}
