package sessionrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

// ValkeyRepo stores sessions in valkey, expiring them with the refresh window.
type ValkeyRepo struct {
	valkey valkey.Client
	prefix string
	sealer *Sealer
	ttl    time.Duration
}

var _ Repo = (*ValkeyRepo)(nil)

func NewValkeyRepo(client valkey.Client, prefix string, sealer *Sealer) *ValkeyRepo {
	return &ValkeyRepo{
		valkey: client,
		prefix: strings.TrimSuffix(prefix, ":"),
		sealer: sealer,
		ttl:    30 * 24 * time.Hour,
	}
}

func (r *ValkeyRepo) key(key string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, key)
}

func (r *ValkeyRepo) Upsert(ctx context.Context, key string, session *backend.Session) error {
	if key == "" {
		return ErrKeyMissing
	}
	if session == nil {
		return ErrNilSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if data, err = r.sealer.Seal(data); err != nil {
		return err
	}

	cmd := r.valkey.B().Set().Key(r.key(key)).Value(valkey.BinaryString(data)).ExSeconds(int64(r.ttl/time.Second)).Build()
	if err := r.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}
	return nil
}

func (r *ValkeyRepo) Get(ctx context.Context, key string) (*backend.Session, error) {
	if key == "" {
		return nil, ErrKeyMissing
	}

	data, err := r.valkey.Do(ctx, r.valkey.B().Get().Key(r.key(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("executing get command: %w", err)
	}

	if data, err = r.sealer.Open(data); err != nil {
		return nil, err
	}
	var session backend.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (r *ValkeyRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyMissing
	}
	if err := r.valkey.Do(ctx, r.valkey.B().Del().Key(r.key(key)).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}
	return nil
}
