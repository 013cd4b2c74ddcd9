package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jrsteele09/sprinkler-crm/auth"
	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/backend/backendfake"
	"github.com/jrsteele09/sprinkler-crm/backend/mock"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

const productionOrigin = "https://sprinkler.example.com"

type testFixture struct {
	client *backendfake.FakeAuth
	store  *auth.Store
}

func setupTestFixture(t *testing.T, opts ...auth.StoreOption) *testFixture {
	t.Helper()
	client := backendfake.NewFakeAuth()
	opts = append([]auth.StoreOption{auth.WithProductionOrigin(productionOrigin)}, opts...)
	store := auth.NewStore(client, opts...)
	t.Cleanup(store.Close)
	return &testFixture{client: client, store: store}
}

func testSession(email string) *backend.Session {
	return &backend.Session{
		AccessToken:  "token-" + email,
		RefreshToken: "refresh-" + email,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User: backend.User{
			ID:    "id-" + email,
			Email: email,
			UserMetadata: backend.UserMetadata{
				FullName:  "Jo Gardener",
				AvatarURL: "https://img.example.com/jo.png",
			},
		},
	}
}

func TestInitialize_LoadsExistingSession(t *testing.T) {
	f := setupTestFixture(t)
	f.client.SetSession(testSession("jo@example.com"))

	require.False(t, f.store.Initialized())
	require.NoError(t, f.store.Initialize(context.Background()))

	st := f.store.Snapshot()
	require.True(t, st.Initialized)
	require.True(t, st.IsAuthenticated())
	require.False(t, st.Loading)
	require.Equal(t, "jo@example.com", st.UserEmail())
	require.Equal(t, "Jo Gardener", st.UserName())
	require.Equal(t, "https://img.example.com/jo.png", st.UserAvatar())
}

func TestInitialize_NoSession(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.store.Initialize(context.Background()))

	st := f.store.Snapshot()
	require.True(t, f.store.Initialized())
	require.False(t, st.IsAuthenticated())
	require.Empty(t, st.UserEmail())
	require.Empty(t, st.UserName())
	require.Empty(t, st.Error)
}

func TestInitialize_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.Initialize(context.Background()))
	}

	require.Equal(t, 1, f.client.Subscribers())
	require.Equal(t, 1, f.client.Calls("GetSession"))
}

func TestInitialize_FailureStillInitializes(t *testing.T) {
	f := setupTestFixture(t)
	f.client.GetSessionErr = errors.New("backend unreachable")

	err := f.store.Initialize(context.Background())

	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.True(t, f.store.Initialized())
	st := f.store.Snapshot()
	require.Equal(t, "backend unreachable", st.Error)
	require.False(t, st.Loading)
	require.False(t, st.IsAuthenticated())

	// The failure is remembered, not retried
	require.ErrorAs(t, f.store.Initialize(context.Background()), &authErr)
	require.Equal(t, 1, f.client.Calls("GetSession"))
}

func TestInitialize_ChangeDuringLoadWins(t *testing.T) {
	f := setupTestFixture(t)
	gate := make(chan struct{})
	f.client.GetSessionGate = gate

	done := make(chan error, 1)
	go func() { done <- f.store.Initialize(context.Background()) }()

	require.Eventually(t, func() bool { return f.client.Subscribers() == 1 }, time.Second, time.Millisecond)
	require.True(t, f.store.Snapshot().Loading)

	signedIn := testSession("late@example.com")
	f.client.Emit(backend.EventSignedIn, signedIn)
	close(gate)
	require.NoError(t, <-done)

	st := f.store.Snapshot()
	require.True(t, st.IsAuthenticated())
	require.Equal(t, "late@example.com", st.UserEmail())
}

func TestChangeNotifications_ReplaceSessionAndClearError(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Initialize(context.Background()))

	f.client.SignInErr = errors.New("provider down")
	_, err := f.store.SignIn(context.Background(), auth.DefaultProvider, productionOrigin)
	require.Error(t, err)
	require.NotEmpty(t, f.store.Snapshot().Error)

	first := testSession("a@example.com")
	f.client.Emit(backend.EventSignedIn, first)
	st := f.store.Snapshot()
	require.Empty(t, st.Error)
	require.Equal(t, "a@example.com", st.UserEmail())
	require.Equal(t, first.AccessToken, st.Session.AccessToken)

	second := testSession("b@example.com")
	f.client.Emit(backend.EventTokenRefreshed, second)
	require.Equal(t, "b@example.com", f.store.Snapshot().UserEmail())

	f.client.Emit(backend.EventSignedOut, nil)
	st = f.store.Snapshot()
	require.False(t, st.IsAuthenticated())
	require.Nil(t, st.Session)
}

func TestSnapshot_IsACopy(t *testing.T) {
	f := setupTestFixture(t)
	f.client.SetSession(testSession("jo@example.com"))
	require.NoError(t, f.store.Initialize(context.Background()))

	st := f.store.Snapshot()
	st.User.Email = "changed@example.com"
	st.Session.AccessToken = "changed"

	again := f.store.Snapshot()
	require.Equal(t, "jo@example.com", again.UserEmail())
	require.Equal(t, "token-jo@example.com", again.Session.AccessToken)
}

func TestWaitForInitialization(t *testing.T) {
	t.Run("returns immediately once initialized", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Initialize(context.Background()))
		require.NoError(t, f.store.WaitForInitialization(context.Background(), time.Nanosecond))
	})

	t.Run("times out without stopping initialization", func(t *testing.T) {
		f := setupTestFixture(t)
		gate := make(chan struct{})
		f.client.GetSessionGate = gate
		f.client.SetSession(testSession("slow@example.com"))
		go f.store.Initialize(context.Background()) //nolint:errcheck

		err := f.store.WaitForInitialization(context.Background(), 20*time.Millisecond)
		var timeoutErr *apperrors.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		require.ErrorIs(t, err, apperrors.ErrTimeout)
		require.False(t, f.store.Initialized())

		close(gate)
		require.NoError(t, f.store.WaitForInitialization(context.Background(), time.Second))
		require.True(t, f.store.Snapshot().IsAuthenticated())
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, f.store.WaitForInitialization(ctx, time.Second), context.Canceled)
	})
}

func TestCallbackURL(t *testing.T) {
	tests := []struct {
		name    string
		devMode bool
		origin  string
		want    string
	}{
		{"production origin kept", false, "https://crm.example.com", "https://crm.example.com/auth/callback"},
		{"trailing slash trimmed", false, "https://crm.example.com/", "https://crm.example.com/auth/callback"},
		{"localhost replaced outside dev", false, "http://localhost:8080", productionOrigin + "/auth/callback"},
		{"loopback ip replaced outside dev", false, "http://127.0.0.1:8080", productionOrigin + "/auth/callback"},
		{"localhost kept in dev", true, "http://localhost:8080", "http://localhost:8080/auth/callback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, auth.WithDevMode(tt.devMode))
			require.Equal(t, tt.want, f.store.CallbackURL(tt.origin))
		})
	}
}

func TestSignIn_RequestsOfflineConsent(t *testing.T) {
	f := setupTestFixture(t)

	start, err := f.store.SignIn(context.Background(), auth.DefaultProvider, "https://crm.example.com")
	require.NoError(t, err)
	require.NotEmpty(t, start.URL)
	require.NotEmpty(t, start.State)

	opts := f.client.LastOAuth
	require.Equal(t, "google", opts.Provider)
	require.Equal(t, "https://crm.example.com/auth/callback", opts.RedirectTo)
	require.Equal(t, "offline", opts.QueryParams["access_type"])
	require.Equal(t, "consent", opts.QueryParams["prompt"])
	require.False(t, f.store.Snapshot().Loading)
}

func TestSignIn_Failure(t *testing.T) {
	f := setupTestFixture(t)
	f.client.SignInErr = errors.New("provider disabled")

	_, err := f.store.SignIn(context.Background(), auth.DefaultProvider, productionOrigin)

	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	st := f.store.Snapshot()
	require.Equal(t, "provider disabled", st.Error)
	require.False(t, st.Loading)

	f.store.ClearError()
	require.Empty(t, f.store.Snapshot().Error)
}

func TestCompleteSignIn_SessionArrivesThroughSubscription(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Initialize(context.Background()))

	require.NoError(t, f.store.CompleteSignIn(context.Background(), "abc", "state-1"))

	st := f.store.Snapshot()
	require.True(t, st.IsAuthenticated())
	require.Equal(t, "abc@example.com", st.UserEmail())
}

func TestCompleteSignIn_Failure(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Initialize(context.Background()))
	f.client.ExchangeErr = apperrors.ErrInvalidState

	err := f.store.CompleteSignIn(context.Background(), "abc", "unknown")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	require.False(t, f.store.IsAuthenticated())
	require.NotEmpty(t, f.store.Snapshot().Error)
}

func TestSignOut_RemoteSession(t *testing.T) {
	f := setupTestFixture(t)
	f.client.SetSession(testSession("jo@example.com"))
	require.NoError(t, f.store.Initialize(context.Background()))

	require.NoError(t, f.store.SignOut(context.Background()))

	require.Equal(t, 1, f.client.Calls("SignOut"))
	st := f.store.Snapshot()
	require.False(t, st.IsAuthenticated())
	require.Nil(t, st.Session)
	require.False(t, st.Loading)
}

func TestSignOut_RemoteRejection(t *testing.T) {
	f := setupTestFixture(t)
	f.client.SetSession(testSession("jo@example.com"))
	require.NoError(t, f.store.Initialize(context.Background()))
	f.client.SignOutErr = errors.New("revocation failed")

	err := f.store.SignOut(context.Background())

	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	st := f.store.Snapshot()
	require.False(t, st.IsAuthenticated(), "local state is cleared before the remote call")
	require.Equal(t, "revocation failed", st.Error)
}

func TestSignInDev(t *testing.T) {
	t.Run("disabled outside dev mode", func(t *testing.T) {
		f := setupTestFixture(t)

		session, err := f.store.SignInDev()
		require.Nil(t, session)
		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		require.ErrorIs(t, err, apperrors.ErrDevSignInDisabled)
		require.False(t, f.store.IsAuthenticated())
	})

	t.Run("installs a fixed session and signs out locally", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithDevMode(true))
		require.NoError(t, f.store.Initialize(context.Background()))

		session, err := f.store.SignInDev()
		require.NoError(t, err)
		require.Equal(t, auth.DevUserID, session.User.ID)
		require.Equal(t, auth.DevAccessToken, session.AccessToken)
		require.True(t, f.store.IsAuthenticated())

		again, err := f.store.SignInDev()
		require.NoError(t, err)
		require.Equal(t, session, again)

		require.NoError(t, f.store.SignOut(context.Background()))
		require.False(t, f.store.IsAuthenticated())
		require.Zero(t, f.client.Calls("SignOut"))
	})
}

func TestStore_WithMockClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewMockAuthClient(ctrl)
	sub := mock.NewMockSubscription(ctrl)

	gomock.InOrder(
		client.EXPECT().OnAuthStateChange(gomock.Any()).Return(sub).Times(1),
		client.EXPECT().GetSession(gomock.Any()).Return(testSession("mock@example.com"), nil).Times(1),
	)
	sub.EXPECT().Unsubscribe().Times(1)

	store := auth.NewStore(client)
	require.NoError(t, store.Initialize(context.Background()))
	require.NoError(t, store.Initialize(context.Background()))
	require.Equal(t, "mock@example.com", store.Snapshot().UserEmail())

	store.Close()
	store.Close()
}

func TestUserName_FallsBackToEmail(t *testing.T) {
	session := testSession("plain@example.com")
	session.User.UserMetadata = backend.UserMetadata{}
	st := auth.State{User: &session.User, Session: session}
	require.Equal(t, "plain@example.com", st.UserName())
	require.Empty(t, st.UserAvatar())
}
