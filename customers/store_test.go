package customers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/backend/backendfake"
	"github.com/jrsteele09/sprinkler-crm/customers"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

const testUserID = "user-1"

type countingObserver struct {
	last  int
	calls int
}

func (o *countingObserver) CustomersCached(n int) {
	o.last = n
	o.calls++
}

type testFixture struct {
	tables   *backendfake.FakeTables
	store    *customers.Store
	observer *countingObserver
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		tables:   backendfake.NewFakeTables(),
		observer: &countingObserver{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = customers.NewStore(f.tables,
		customers.WithObserver(f.observer),
		customers.WithNowTime(func() time.Time { return f.now }),
	)
	return f
}

func input(first, last string) customers.CustomerInput {
	return customers.CustomerInput{
		UserID:    testUserID,
		FirstName: first,
		LastName:  last,
		Phone:     "5551234567",
		Address:   "1 Elm Street NW",
	}
}

func (f *testFixture) create(t *testing.T, first, last string) *customers.Customer {
	t.Helper()
	c, err := f.store.CreateCustomer(context.Background(), input(first, last))
	require.NoError(t, err)
	return c
}

func ids(cs []customers.Customer) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestFetchCustomers_NewestFirst(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	b := f.create(t, "Bob", "Baker")

	fresh := customers.NewStore(f.tables)
	got := fresh.FetchCustomers(context.Background())

	require.Equal(t, []string{b.ID, a.ID}, ids(got))
	require.Equal(t, 2, fresh.TotalCustomers())
	require.False(t, fresh.Loading())
	require.Empty(t, fresh.Error())
}

func TestFetchCustomers_EmptyTable(t *testing.T) {
	f := setupTestFixture(t)

	got := f.store.FetchCustomers(context.Background())
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Equal(t, 1, f.observer.calls)
	require.Zero(t, f.observer.last)
}

func TestFetchCustomers_FailureIsSwallowed(t *testing.T) {
	f := setupTestFixture(t)
	f.create(t, "Ann", "Able")
	f.tables.FailNext("select", &apperrors.RemoteOperationError{Op: "select", Status: 500, Message: "database unavailable"})

	got := f.store.FetchCustomers(context.Background())

	require.Nil(t, got)
	require.Equal(t, "database unavailable", f.store.Error())
	require.False(t, f.store.Loading())
	require.Equal(t, 1, f.store.TotalCustomers(), "stale data is kept")

	f.store.ClearError()
	require.Empty(t, f.store.Error())
}

func TestFetchCustomer(t *testing.T) {
	f := setupTestFixture(t)
	created := f.create(t, "Ann", "Able")

	got := f.store.FetchCustomer(context.Background(), created.ID)
	require.NotNil(t, got)
	require.Empty(t, cmp.Diff(created, got))
	require.Empty(t, cmp.Diff(created, f.store.CurrentCustomer()))

	f.store.ClearCurrentCustomer()
	require.Nil(t, f.store.CurrentCustomer())
}

func TestFetchCustomer_Missing(t *testing.T) {
	f := setupTestFixture(t)

	got := f.store.FetchCustomer(context.Background(), "nope")

	require.Nil(t, got)
	require.NotEmpty(t, f.store.Error())
	require.Nil(t, f.store.CurrentCustomer())
	require.False(t, f.store.Loading())
}

func TestCreateCustomer_PrependsAndCounts(t *testing.T) {
	f := setupTestFixture(t)
	f.create(t, "Ann", "Able")
	before := f.store.TotalCustomers()

	c, err := f.store.CreateCustomer(context.Background(), input("Bob", "Baker"))
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.False(t, c.CreatedAt.IsZero())

	all := f.store.Customers()
	require.Equal(t, c.ID, all[0].ID)
	require.Equal(t, before+1, f.store.TotalCustomers())
	require.Equal(t, before+1, f.observer.last)
	require.Equal(t, 1, f.tables.Rows(backend.TableCustomers)-before)
}

func TestCreateCustomer_Failure(t *testing.T) {
	f := setupTestFixture(t)
	f.tables.FailNext("insert", errors.New("connection reset"))

	c, err := f.store.CreateCustomer(context.Background(), input("Ann", "Able"))

	require.Nil(t, c)
	var remote *apperrors.RemoteOperationError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, backend.TableCustomers, remote.Table)
	require.Equal(t, "connection reset", f.store.Error())
	require.False(t, f.store.Loading())
	require.Zero(t, f.store.TotalCustomers())
}

func TestUpdateCustomer_ReplacesInPlace(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	b := f.create(t, "Bob", "Baker")
	require.NotNil(t, f.store.FetchCustomer(context.Background(), a.ID))

	phone := "5559876543"
	updated, err := f.store.UpdateCustomer(context.Background(), a.ID, customers.CustomerUpdate{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)
	require.Equal(t, "Ann", updated.FirstName)
	require.True(t, updated.UpdatedAt.Equal(f.now))

	require.Equal(t, []string{b.ID, a.ID}, ids(f.store.Customers()))
	require.Equal(t, phone, f.store.Customers()[1].Phone)
	require.Equal(t, phone, f.store.CurrentCustomer().Phone)
}

func TestUpdateCustomer_ClearsCoordinates(t *testing.T) {
	f := setupTestFixture(t)
	in := input("Ann", "Able")
	lat, lng := 45.5, -122.6
	in.Latitude, in.Longitude = &lat, &lng
	a, err := f.store.CreateCustomer(context.Background(), in)
	require.NoError(t, err)

	phone := "5559876543"
	kept, err := f.store.UpdateCustomer(context.Background(), a.ID, customers.CustomerUpdate{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, kept.Latitude)
	require.NotNil(t, kept.Longitude)

	cleared, err := f.store.UpdateCustomer(context.Background(), a.ID, customers.CustomerUpdate{ClearLatitude: true})
	require.NoError(t, err)
	require.Nil(t, cleared.Latitude)
	require.NotNil(t, cleared.Longitude)
	require.InDelta(t, lng, *cleared.Longitude, 1e-9)
	require.Nil(t, f.store.Customers()[0].Latitude)
}

func TestCustomerUpdate_MarshalJSON(t *testing.T) {
	name := "Anne"
	lng := 10.0
	b, err := json.Marshal(customers.CustomerUpdate{FirstName: &name, Longitude: &lng, ClearLatitude: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"first_name":"Anne","latitude":null,"longitude":10}`, string(b))
}

func TestUpdateCustomer_Failure(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	f.tables.FailNext("update", &apperrors.RemoteOperationError{Op: "update", Table: backend.TableCustomers, Status: 403, Message: "permission denied"})

	name := "Anne"
	_, err := f.store.UpdateCustomer(context.Background(), a.ID, customers.CustomerUpdate{FirstName: &name})

	require.Error(t, err)
	require.Equal(t, "permission denied", f.store.Error())
	require.Equal(t, "Ann", f.store.Customers()[0].FirstName)
}

func TestDeleteCustomer(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	b := f.create(t, "Bob", "Baker")
	require.NotNil(t, f.store.FetchCustomer(context.Background(), a.ID))

	require.NoError(t, f.store.DeleteCustomer(context.Background(), a.ID))

	require.Equal(t, []string{b.ID}, ids(f.store.Customers()))
	require.Nil(t, f.store.CurrentCustomer())
	require.Equal(t, 1, f.tables.Rows(backend.TableCustomers))
}

func TestDeleteCustomer_KeepsOtherCurrent(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	b := f.create(t, "Bob", "Baker")
	require.NotNil(t, f.store.FetchCustomer(context.Background(), b.ID))

	require.NoError(t, f.store.DeleteCustomer(context.Background(), a.ID))
	require.Equal(t, b.ID, f.store.CurrentCustomer().ID)
}

func TestDeleteCustomer_Failure(t *testing.T) {
	f := setupTestFixture(t)
	a := f.create(t, "Ann", "Able")
	f.tables.FailNext("delete", errors.New("timeout"))

	err := f.store.DeleteCustomer(context.Background(), a.ID)

	require.Error(t, err)
	require.Equal(t, 1, f.store.TotalCustomers())
	require.Equal(t, "timeout", f.store.Error())
}

func TestBulkCreateCustomers_PrependsAll(t *testing.T) {
	f := setupTestFixture(t)
	existing := f.create(t, "Ann", "Able")

	rows, err := f.store.BulkCreateCustomers(context.Background(), []customers.CustomerInput{
		input("Bob", "Baker"),
		input("Cat", "Cooper"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	want := []string{rows[0].ID, rows[1].ID, existing.ID}
	require.Equal(t, want, ids(f.store.Customers()))
}

func TestBulkCreateCustomers_Empty(t *testing.T) {
	f := setupTestFixture(t)

	rows, err := f.store.BulkCreateCustomers(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Zero(t, f.tables.Rows(backend.TableCustomers))
}

func TestFilteredCustomers(t *testing.T) {
	f := setupTestFixture(t)
	f.create(t, "Bob", "Baker")
	ann := f.create(t, "Ann", "Able")

	f.store.SetSearchQuery("an")
	require.Equal(t, []string{ann.ID}, ids(f.store.FilteredCustomers()))

	f.store.SetSearchQuery("   ")
	require.Len(t, f.store.FilteredCustomers(), 2)
}

func TestFilter(t *testing.T) {
	list := []customers.Customer{
		{ID: "1", FirstName: "Ann", LastName: "Able", Phone: "555-0100", Address: "12 Oak Avenue"},
		{ID: "2", FirstName: "Bob", LastName: "Baker", Phone: "555-0199", Address: "9 Pine Road"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"an", []string{"1"}},
		{"AN", []string{"1"}},
		{"baker", []string{"2"}},
		{"0199", []string{"2"}},
		{"oak", []string{"1"}},
		{" pine ", []string{"2"}},
		{"555", []string{"1", "2"}},
		{"", []string{"1", "2"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := customers.Filter(list, tt.query)
			if diff := cmp.Diff(tt.want, ids(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	require.Equal(t, "Ann Able", customers.FullName(customers.Customer{FirstName: "Ann", LastName: "Able"}))
}
