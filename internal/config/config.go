package config

import (
	"time"

	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetHost() string
	GetListenAddr() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type BackendConfig interface {
	GetBackendURL() string
	GetBackendAPIKey() string
	GetVerifyJWT() bool
	GetRequestTimeout() time.Duration
}

type SessionConfig interface {
	GetSessionStore() string
	GetSessionSecret() string
	GetValkeyAddr() string
	GetValkeyUsername() string
	GetValkeyPassword() string
	GetValkeyPrefix() string
	GetProductionOrigin() string
	GetAuthInitTimeout() time.Duration
	GetOAuthStateTTL() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Backend
	Session
	Cors
}

func New() Config {
	return mainConfig{}
}

// Load returns the environment backed configuration, failing with a
// *errors.ConfigurationError when a required value is absent.
func Load() (Config, error) {
	c := New()
	var missing []string
	if c.GetBackendURL() == "" {
		missing = append(missing, backendURLVar)
	}
	if c.GetBackendAPIKey() == "" {
		missing = append(missing, backendAPIKeyVar)
	}
	if len(missing) > 0 {
		return nil, &apperrors.ConfigurationError{Vars: missing, Err: apperrors.ErrMissingConfig}
	}
	return c, nil
}
