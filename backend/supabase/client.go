// Package supabase talks to a hosted Supabase project: GoTrue for sessions and
// PostgREST for tables.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/backend/authflowrepo"
	"github.com/jrsteele09/sprinkler-crm/backend/sessionrepo"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	// expirySkew refreshes tokens slightly before they lapse.
	expirySkew = 30 * time.Second
)

// Observer is told about every request made to the backend.
type Observer interface {
	ObserveRequest(op, table string, status int, elapsed time.Duration)
}

type Options struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Sessions   sessionrepo.Repo
	AuthFlows  authflowrepo.Repo
	// StorageKey names the persisted session. Defaults to sb-<project ref>-auth-token.
	StorageKey string
	// VerifyJWT checks access tokens against the project's JWKS.
	VerifyJWT bool
	Observer  Observer
	Now       func() time.Time
}

// Client implements backend.AuthClient and backend.Tables.
type Client struct {
	baseURL    string
	apiKey     string
	storageKey string
	plain      *http.Client
	authed     *http.Client
	sessions   sessionrepo.Repo
	authFlows  authflowrepo.Repo
	tokens     *tokenInspector
	observer   Observer
	now        func() time.Time
	listeners  *listeners
	refreshes  singleflight.Group
}

var (
	_ backend.AuthClient = (*Client)(nil)
	_ backend.Tables     = (*Client)(nil)
)

func New(opts Options) (*Client, error) {
	if opts.URL == "" || opts.APIKey == "" {
		return nil, &apperrors.ConfigurationError{Vars: []string{"url", "api key"}, Err: apperrors.ErrMissingConfig}
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("[supabase New] parsing url: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		apiKey:     opts.APIKey,
		storageKey: opts.StorageKey,
		plain:      opts.HTTPClient,
		sessions:   opts.Sessions,
		authFlows:  opts.AuthFlows,
		observer:   opts.Observer,
		now:        opts.Now,
		listeners:  newListeners(),
	}
	if c.plain == nil {
		c.plain = &http.Client{Timeout: 15 * time.Second}
	}
	if c.sessions == nil {
		c.sessions = sessionrepo.NewInMemoryRepo()
	}
	if c.authFlows == nil {
		c.authFlows = authflowrepo.NewCacheRepo(10 * time.Minute)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.storageKey == "" {
		c.storageKey = "sb-" + strings.SplitN(u.Hostname(), ".", 2)[0] + "-auth-token"
	}

	base := c.plain.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.authed = &http.Client{
		Timeout:   c.plain.Timeout,
		Transport: &oauth2.Transport{Source: &sessionTokenSource{client: c}, Base: base},
	}

	c.tokens = newTokenInspector(c.baseURL+authPath, opts.VerifyJWT, c.plain)
	return c, nil
}

// sessionTokenSource authenticates table requests as the signed in user, or
// as the anonymous role when there is no session.
type sessionTokenSource struct {
	client *Client
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.client.GetSession(context.Background())
	if err != nil || session == nil {
		return &oauth2.Token{AccessToken: s.client.apiKey, TokenType: "Bearer"}, nil
	}
	t := session.Token()
	t.TokenType = "Bearer"
	return t, nil
}

// errorBody covers both GoTrue and PostgREST error payloads.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
}

func (e errorBody) message() string {
	for _, m := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func (e errorBody) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	switch v := e.Code.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

type request struct {
	op      string
	table   string
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	authed  bool
	bearer  string
}

// do performs req and decodes a 2xx JSON body into dest when dest is non-nil.
func (c *Client) do(ctx context.Context, req request, dest any) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return &apperrors.RemoteOperationError{Op: req.op, Table: req.table, Err: err, Message: "encoding request"}
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return &apperrors.RemoteOperationError{Op: req.op, Table: req.table, Err: err, Message: err.Error()}
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	hc := c.plain
	if req.authed {
		hc = c.authed
	}

	start := c.now()
	resp, err := hc.Do(httpReq)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.observer != nil {
		c.observer.ObserveRequest(req.op, req.table, status, c.now().Sub(start))
	}
	if err != nil {
		return &apperrors.RemoteOperationError{Op: req.op, Table: req.table, Err: err, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.RemoteOperationError{Op: req.op, Table: req.table, Status: status, Err: err, Message: err.Error()}
	}

	if status < 200 || status > 299 {
		return decodeError(req, status, data)
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &apperrors.RemoteOperationError{Op: req.op, Table: req.table, Status: status, Err: err, Message: "decoding response: " + err.Error()}
	}
	return nil
}

func decodeError(req request, status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	remote := &apperrors.RemoteOperationError{
		Op:      req.op,
		Table:   req.table,
		Status:  status,
		Code:    eb.code(),
		Message: eb.message(),
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(status)
	}
	switch {
	case remote.Code == "PGRST116", status == http.StatusNotFound:
		remote.Err = apperrors.ErrNotFound
	case status >= 500:
		remote.Err = apperrors.ErrInternal
	}

	log.Debug().
		Str("op", req.op).
		Str("table", req.table).
		Int("status", status).
		Str("code", remote.Code).
		Msg(remote.Message)
	return remote
}
