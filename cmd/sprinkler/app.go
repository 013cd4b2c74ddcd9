package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
	"github.com/valkey-io/valkey-go"

	"github.com/jrsteele09/sprinkler-crm/auth"
	"github.com/jrsteele09/sprinkler-crm/backend/authflowrepo"
	"github.com/jrsteele09/sprinkler-crm/backend/sessionrepo"
	"github.com/jrsteele09/sprinkler-crm/backend/supabase"
	"github.com/jrsteele09/sprinkler-crm/customers"
	"github.com/jrsteele09/sprinkler-crm/internal/config"
	"github.com/jrsteele09/sprinkler-crm/internal/metrics"
	"github.com/jrsteele09/sprinkler-crm/server"
)

// app is the process wide object graph, built once at boot.
type app struct {
	cfg      config.Config
	metrics  *metrics.Metrics
	backend  *supabase.Client
	stores   server.Stores
	closeFns []func()
}

func newApp(cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	sessions, err := a.sessionRepo()
	if err != nil {
		a.Close()
		return nil, err
	}

	client, err := supabase.New(supabase.Options{
		URL:        cfg.GetBackendURL(),
		APIKey:     cfg.GetBackendAPIKey(),
		HTTPClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		Sessions:   sessions,
		AuthFlows:  authflowrepo.NewCacheRepo(cfg.GetOAuthStateTTL()),
		VerifyJWT:  cfg.GetVerifyJWT(),
		Observer:   a.metrics,
	})
	if err != nil {
		a.Close()
		return nil, oops.In("app").Wrapf(err, "creating backend client")
	}
	a.backend = client

	sessionStore := auth.NewStore(client,
		auth.WithDevMode(cfg.IsDev()),
		auth.WithProductionOrigin(cfg.GetProductionOrigin()),
	)
	a.closeFns = append(a.closeFns, sessionStore.Close)

	a.stores = server.Stores{
		Sessions:     sessionStore,
		Customers:    customers.NewStore(client, customers.WithObserver(a.metrics)),
		Notes:        customers.NewNotesStore(client),
		Appointments: customers.NewAppointmentsStore(client),
	}
	return a, nil
}

// sessionRepo builds the configured session persistence.
func (a *app) sessionRepo() (sessionrepo.Repo, error) {
	sealer, err := sessionrepo.NewSealer(a.cfg.GetSessionSecret())
	if err != nil {
		return nil, oops.In("app").Wrapf(err, "creating session sealer")
	}
	if sealer == nil && a.cfg.GetSessionStore() != config.SessionStoreMemory {
		log.Warn().Msg("SESSION_SECRET is not set, the session is stored unsealed")
	}

	switch store := a.cfg.GetSessionStore(); store {
	case config.SessionStoreMemory:
		return sessionrepo.NewInMemoryRepo(), nil
	case config.SessionStoreValkey:
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{a.cfg.GetValkeyAddr()},
			Username:    a.cfg.GetValkeyUsername(),
			Password:    a.cfg.GetValkeyPassword(),
		})
		if err != nil {
			return nil, oops.In("app").With("addr", a.cfg.GetValkeyAddr()).Wrapf(err, "creating valkey client")
		}
		a.closeFns = append(a.closeFns, client.Close)
		return sessionrepo.NewValkeyRepo(client, a.cfg.GetValkeyPrefix(), sealer), nil
	case config.SessionStoreFile:
		repo, err := sessionrepo.NewFileRepo(a.cfg.GetDataFolder(), sealer)
		if err != nil {
			return nil, oops.In("app").With("folder", a.cfg.GetDataFolder()).Wrapf(err, "creating session file store")
		}
		return repo, nil
	default:
		return nil, oops.In("app").With("store", store).Errorf("unknown session store %q", store)
	}
}

// initialize boots the session store and waits for it, up to the configured
// timeout. A slow backend does not stop the process from starting.
func (a *app) initialize(ctx context.Context) {
	go func() {
		if err := a.stores.Sessions.Initialize(ctx); err != nil {
			log.Err(err).Msg("Session store initialization failed")
		}
	}()
	if err := a.stores.Sessions.WaitForInitialization(ctx, a.cfg.GetAuthInitTimeout()); err != nil {
		log.Warn().Err(err).Msg("Continuing before session store initialized")
	}
}

func (a *app) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

