package config

import (
	"strings"
	"time"
)

const (
	backendURLVar    = "SUPABASE_URL"
	backendAPIKeyVar = "SUPABASE_ANON_KEY"
	verifyJWTVar     = "SUPABASE_VERIFY_JWT"
	requestTimeout   = "SUPABASE_TIMEOUT"
)

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendURL returns the hosted backend's network address, without a trailing slash.
func (Backend) GetBackendURL() string {
	return strings.TrimRight(GetEnv(backendURLVar, ""), "/")
}

// GetBackendAPIKey returns the backend's public (anon) API key.
func (Backend) GetBackendAPIKey() string {
	return GetEnv(backendAPIKeyVar, "")
}

func (Backend) GetVerifyJWT() bool {
	return getBool(verifyJWTVar, false)
}

func (Backend) GetRequestTimeout() time.Duration {
	return getDuration(requestTimeout, 15*time.Second)
}
