package sessionrepo

import "errors"

var (
	ErrNotFound   = errors.New("session not found")
	ErrKeyMissing = errors.New("key is required")
	ErrNilSession = errors.New("session is required")
)
