package customers

import (
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

// tracker holds the loading flag and last error shared by every store.
type tracker struct {
	mu      sync.RWMutex
	pending int
	err     string
}

func (t *tracker) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending > 0
}

// Error is the message of the last failed operation, or "".
func (t *tracker) Error() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *tracker) ClearError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = ""
}

// begin marks an operation in flight and clears the previous error.
func (t *tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
	t.err = ""
}

func (t *tracker) end() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending--
}

// fail records err and returns it as a *errors.RemoteOperationError.
func (t *tracker) fail(op, table string, err error, fallback string) error {
	var remote *apperrors.RemoteOperationError
	if !apperrors.As(err, &remote) {
		remote = &apperrors.RemoteOperationError{Op: op, Table: table, Message: err.Error(), Err: err}
	}
	t.mu.Lock()
	t.err = apperrors.Message(remote, fallback)
	t.mu.Unlock()
	return remote
}

// invalid records the problems and returns them as a *errors.ValidationError.
func (t *tracker) invalid(problems ...string) error {
	t.mu.Lock()
	t.err = strings.Join(problems, "; ")
	t.mu.Unlock()
	return &apperrors.ValidationError{Problems: problems}
}
