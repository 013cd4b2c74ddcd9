package sessionrepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/backend/sessionrepo"
	"github.com/stretchr/testify/require"
)

func testSession() *backend.Session {
	return &backend.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User: backend.User{
			ID:    "user-1",
			Email: "owner@example.com",
			UserMetadata: backend.UserMetadata{
				FullName: "Pat Owner",
			},
		},
	}
}

func exerciseRepo(t *testing.T, repo sessionrepo.Repo) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "sb-auth-token")
	require.ErrorIs(t, err, sessionrepo.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, "sb-auth-token", testSession()))

	got, err := repo.Get(ctx, "sb-auth-token")
	require.NoError(t, err)
	require.Equal(t, testSession(), got)

	require.NoError(t, repo.Delete(ctx, "sb-auth-token"))
	require.NoError(t, repo.Delete(ctx, "sb-auth-token"))

	_, err = repo.Get(ctx, "sb-auth-token")
	require.ErrorIs(t, err, sessionrepo.ErrNotFound)

	require.ErrorIs(t, repo.Upsert(ctx, "", testSession()), sessionrepo.ErrKeyMissing)
	require.ErrorIs(t, repo.Upsert(ctx, "k", nil), sessionrepo.ErrNilSession)
}

func TestInMemoryRepo(t *testing.T) {
	exerciseRepo(t, sessionrepo.NewInMemoryRepo())
}

func TestInMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := sessionrepo.NewInMemoryRepo()
	s := testSession()
	require.NoError(t, repo.Upsert(ctx, "k", s))

	s.AccessToken = "mutated"
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "access", got.AccessToken)
}

func TestFileRepo(t *testing.T) {
	repo, err := sessionrepo.NewFileRepo(t.TempDir(), nil)
	require.NoError(t, err)
	exerciseRepo(t, repo)
}

func TestFileRepo_Sealed(t *testing.T) {
	dir := t.TempDir()
	sealer, err := sessionrepo.NewSealer("correct horse battery staple")
	require.NoError(t, err)

	repo, err := sessionrepo.NewFileRepo(dir, sealer)
	require.NoError(t, err)
	exerciseRepo(t, repo)

	require.NoError(t, repo.Upsert(context.Background(), "k", testSession()))
	raw, err := os.ReadFile(filepath.Join(dir, "k.session"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "owner@example.com")

	other, err := sessionrepo.NewSealer("a different secret")
	require.NoError(t, err)
	wrongKey, err := sessionrepo.NewFileRepo(dir, other)
	require.NoError(t, err)
	_, err = wrongKey.Get(context.Background(), "k")
	require.ErrorIs(t, err, sessionrepo.ErrUnseal)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	s, err := sessionrepo.NewSealer("")
	require.NoError(t, err)
	require.Nil(t, s)

	out, err := s.Seal([]byte("plain"))
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), out)
}
