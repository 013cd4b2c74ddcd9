package config

import (
	"strings"
	"time"
)

const (
	sessionStoreVar     = "SESSION_STORE"
	sessionSecretVar    = "SESSION_SECRET"
	valkeyAddrVar       = "VALKEY_ADDR"
	valkeyPrefixVar     = "VALKEY_PREFIX"
	valkeyUsernameVar   = "VALKEY_USERNAME"
	valkeyPasswordVar   = "VALKEY_PASSWORD"
	productionOriginVar = "PRODUCTION_ORIGIN"
	authInitTimeoutVar  = "AUTH_INIT_TIMEOUT"
)

// Session store kinds
const (
	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
	SessionStoreValkey = "valkey"
)

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionStore selects where the backend session is persisted: memory, file or valkey.
func (Session) GetSessionStore() string {
	return strings.ToLower(GetEnv(sessionStoreVar, SessionStoreFile))
}

func (Session) GetSessionSecret() string {
	return GetEnv(sessionSecretVar, "")
}

func (Session) GetValkeyAddr() string {
	return GetEnv(valkeyAddrVar, "localhost:6379")
}

func (Session) GetValkeyUsername() string {
	return GetEnv(valkeyUsernameVar, "")
}

func (Session) GetValkeyPassword() string {
	return GetEnv(valkeyPasswordVar, "")
}

func (Session) GetValkeyPrefix() string {
	return GetEnv(valkeyPrefixVar, "sprinkler")
}

// GetProductionOrigin is used as the OAuth callback origin when the runtime
// origin is a loopback address outside of DEV.
func (Session) GetProductionOrigin() string {
	return strings.TrimRight(GetEnv(productionOriginVar, "https://sprinkler-business.netlify.app"), "/")
}

func (Session) GetAuthInitTimeout() time.Duration {
	return getDuration(authInitTimeoutVar, 5*time.Second)
}

func (Session) GetOAuthStateTTL() time.Duration {
	return 10 * time.Minute
}
