// Package sessionrepo persists the backend session between process restarts,
// the way a browser client keeps it in local storage.
package sessionrepo

import (
	"context"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

type Repo interface {
	Upsert(ctx context.Context, key string, session *backend.Session) error
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (*backend.Session, error)
	Delete(ctx context.Context, key string) error
}
