package customers

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

// Observer is told the size of the cached collection after every change.
type Observer interface {
	CustomersCached(n int)
}

type StoreOption func(*Store)

func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		s.observer = o
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// Store caches the customers collection and keeps it consistent with the
// backend after each write, without refetching.
//
// Reads never return an error: on failure they return nil and the message is
// available from Error. Writes return the error as well as recording it.
type Store struct {
	tracker
	tables   backend.Tables
	observer Observer
	nowTime  func() time.Time

	lock      sync.RWMutex
	customers []Customer
	current   *Customer
	query     string
}

func NewStore(tables backend.Tables, opts ...StoreOption) *Store {
	s := &Store{
		tables:  tables,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCustomers replaces the collection with every customer, newest first.
func (s *Store) FetchCustomers(ctx context.Context) []Customer {
	s.begin()
	defer s.end()

	var rows []Customer
	q := backend.From(backend.TableCustomers).OrderBy("created_at", false)
	if err := s.tables.Select(ctx, q, &rows); err != nil {
		s.fail("select", backend.TableCustomers, err, "Failed to fetch customers")
		log.Err(err).Msg("Error fetching customers")
		return nil
	}
	if rows == nil {
		rows = []Customer{}
	}

	s.lock.Lock()
	s.customers = rows
	s.lock.Unlock()
	s.observe()
	return slices.Clone(rows)
}

// FetchCustomer loads one customer and makes it current. It returns nil when
// the customer cannot be loaded.
func (s *Store) FetchCustomer(ctx context.Context, id string) *Customer {
	s.begin()
	defer s.end()

	var c Customer
	q := backend.From(backend.TableCustomers).Eq("id", id).One()
	if err := s.tables.Select(ctx, q, &c); err != nil {
		s.fail("select", backend.TableCustomers, err, "Failed to fetch customer")
		log.Err(err).Str("id", id).Msg("Error fetching customer")
		return nil
	}

	s.lock.Lock()
	s.current = &c
	s.lock.Unlock()
	out := c
	return &out
}

// CreateCustomer inserts a customer and puts it at the head of the collection.
func (s *Store) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	s.begin()
	defer s.end()

	var c Customer
	if err := s.tables.Insert(ctx, backend.TableCustomers, in, &c); err != nil {
		log.Err(err).Msg("Error creating customer")
		return nil, s.fail("insert", backend.TableCustomers, err, "Failed to create customer")
	}

	s.lock.Lock()
	s.customers = slices.Insert(s.customers, 0, c)
	s.lock.Unlock()
	s.observe()
	return &c, nil
}

// UpdateCustomer patches a customer, stamping updated_at, and replaces it in
// place in the collection and as the current customer.
func (s *Store) UpdateCustomer(ctx context.Context, id string, updates CustomerUpdate) (*Customer, error) {
	s.begin()
	defer s.end()

	now := s.nowTime().UTC()
	updates.UpdatedAt = &now

	var c Customer
	q := backend.From(backend.TableCustomers).Eq("id", id).One()
	if err := s.tables.Update(ctx, q, updates, &c); err != nil {
		log.Err(err).Str("id", id).Msg("Error updating customer")
		return nil, s.fail("update", backend.TableCustomers, err, "Failed to update customer")
	}

	s.lock.Lock()
	if i := slices.IndexFunc(s.customers, func(x Customer) bool { return x.ID == id }); i >= 0 {
		s.customers[i] = c
	}
	if s.current != nil && s.current.ID == id {
		cur := c
		s.current = &cur
	}
	s.lock.Unlock()
	return &c, nil
}

// DeleteCustomer removes a customer, clearing it as current when it was.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.begin()
	defer s.end()

	q := backend.From(backend.TableCustomers).Eq("id", id)
	if err := s.tables.Delete(ctx, q); err != nil {
		log.Err(err).Str("id", id).Msg("Error deleting customer")
		return s.fail("delete", backend.TableCustomers, err, "Failed to delete customer")
	}

	s.lock.Lock()
	s.customers = slices.DeleteFunc(s.customers, func(x Customer) bool { return x.ID == id })
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lock.Unlock()
	s.observe()
	return nil
}

// BulkCreateCustomers inserts rows in one request and prepends the stored rows
// in the order the backend returned them.
func (s *Store) BulkCreateCustomers(ctx context.Context, in []CustomerInput) ([]Customer, error) {
	s.begin()
	defer s.end()

	if len(in) == 0 {
		return []Customer{}, nil
	}

	var rows []Customer
	if err := s.tables.Insert(ctx, backend.TableCustomers, in, &rows); err != nil {
		log.Err(err).Int("rows", len(in)).Msg("Error importing customers")
		return nil, s.fail("insert", backend.TableCustomers, err, "Failed to import customers")
	}

	s.lock.Lock()
	s.customers = slices.Insert(s.customers, 0, rows...)
	s.lock.Unlock()
	s.observe()
	return slices.Clone(rows), nil
}

// Customers returns a copy of the cached collection.
func (s *Store) Customers() []Customer {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.customers)
}

func (s *Store) TotalCustomers() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.customers)
}

func (s *Store) CurrentCustomer() *Customer {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

func (s *Store) ClearCurrentCustomer() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.current = nil
}

func (s *Store) SetSearchQuery(query string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.query = query
}

func (s *Store) SearchQuery() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.query
}

// FilteredCustomers applies the search query to the cached collection.
func (s *Store) FilteredCustomers() []Customer {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return Filter(s.customers, s.query)
}

// Filter returns the customers whose name, phone or address contains query,
// ignoring case. A blank query matches everything.
func Filter(customers []Customer, query string) []Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(customers)
	}
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(c.Phone, q) ||
			strings.Contains(strings.ToLower(c.Address), q) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) observe() {
	if s.observer == nil {
		return
	}
	s.observer.CustomersCached(s.TotalCustomers())
}
