package customers

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

// NotesStore caches notes per customer, newest first.
type NotesStore struct {
	tracker
	tables backend.Tables

	lock  sync.RWMutex
	notes map[string][]Note
}

func NewNotesStore(tables backend.Tables) *NotesStore {
	return &NotesStore{
		tables: tables,
		notes:  make(map[string][]Note),
	}
}

// ListNotes loads the notes of a customer. It returns nil on failure.
func (s *NotesStore) ListNotes(ctx context.Context, customerID string) []Note {
	s.begin()
	defer s.end()

	var rows []Note
	q := backend.From(backend.TableCustomerNotes).Eq("customer_id", customerID).OrderBy("created_at", false)
	if err := s.tables.Select(ctx, q, &rows); err != nil {
		s.fail("select", backend.TableCustomerNotes, err, "Failed to fetch notes")
		log.Err(err).Str("customer", customerID).Msg("Error fetching notes")
		return nil
	}
	if rows == nil {
		rows = []Note{}
	}

	s.lock.Lock()
	s.notes[customerID] = rows
	s.lock.Unlock()
	return slices.Clone(rows)
}

func (s *NotesStore) AddNote(ctx context.Context, customerID, userID, content string) (*Note, error) {
	s.begin()
	defer s.end()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, s.invalid("Note content is required")
	}

	var n Note
	in := noteInput{CustomerID: customerID, UserID: userID, Content: content}
	if err := s.tables.Insert(ctx, backend.TableCustomerNotes, in, &n); err != nil {
		log.Err(err).Str("customer", customerID).Msg("Error adding note")
		return nil, s.fail("insert", backend.TableCustomerNotes, err, "Failed to add note")
	}

	s.lock.Lock()
	s.notes[customerID] = slices.Insert(s.notes[customerID], 0, n)
	s.lock.Unlock()
	return &n, nil
}

// DeleteNote removes note id. A note of another customer is left alone.
func (s *NotesStore) DeleteNote(ctx context.Context, customerID, id string) error {
	s.begin()
	defer s.end()

	q := backend.From(backend.TableCustomerNotes).Eq("id", id).Eq("customer_id", customerID)
	if err := s.tables.Delete(ctx, q); err != nil {
		log.Err(err).Str("id", id).Msg("Error deleting note")
		return s.fail("delete", backend.TableCustomerNotes, err, "Failed to delete note")
	}

	s.lock.Lock()
	s.notes[customerID] = slices.DeleteFunc(s.notes[customerID], func(n Note) bool { return n.ID == id })
	s.lock.Unlock()
	return nil
}

// Notes returns the cached notes of a customer.
func (s *NotesStore) Notes(customerID string) []Note {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.notes[customerID])
}
