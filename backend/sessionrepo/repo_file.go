package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileRepo stores one file per key in a folder, optionally sealed.
type FileRepo struct {
	mu     sync.Mutex
	folder string
	sealer *Sealer
}

var _ Repo = (*FileRepo)(nil)

func NewFileRepo(folder string, sealer *Sealer) (*FileRepo, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("creating session folder: %w", err)
	}
	return &FileRepo{folder: folder, sealer: sealer}, nil
}

func (r *FileRepo) path(key string) string {
	return filepath.Join(r.folder, unsafeKeyChars.ReplaceAllString(key, "_")+".session")
}

func (r *FileRepo) Upsert(_ context.Context, key string, session *backend.Session) error {
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
	data, err = r.sealer.Seal(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp := r.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return os.Rename(tmp, r.path(key))
}

func (r *FileRepo) Get(_ context.Context, key string) (*backend.Session, error) {
	if key == "" {
		return nil, ErrKeyMissing
	}

	r.mu.Lock()
	data, err := os.ReadFile(r.path(key))
	r.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	data, err = r.sealer.Open(data)
	if err != nil {
		return nil, err
	}
	var session backend.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (r *FileRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyMissing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
