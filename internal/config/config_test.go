package config_test

import (
	"testing"

	"github.com/jrsteele09/sprinkler-crm/internal/config"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingBackendValues(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := config.Load()
	require.Error(t, err)

	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.ElementsMatch(t, []string{"SUPABASE_URL", "SUPABASE_ANON_KEY"}, cfgErr.Vars)
	require.ErrorIs(t, err, apperrors.ErrMissingConfig)
}

func TestLoad_MissingAPIKeyOnly(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := config.Load()
	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, []string{"SUPABASE_ANON_KEY"}, cfgErr.Vars)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("ENV", "")
	t.Setenv("PORT", "9000")

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "https://abc.supabase.co", c.GetBackendURL())
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "127.0.0.1:9000", c.GetListenAddr())
	require.Equal(t, config.ProdEnv, c.GetEnv())
	require.False(t, c.IsDev())
	require.Equal(t, config.SessionStoreFile, c.GetSessionStore())
}

func TestEnv_DevIsOptIn(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "")

	c := config.New()
	require.True(t, c.IsDev())
	require.Equal(t, "0.0.0.0:8080", c.GetListenAddr())
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}
