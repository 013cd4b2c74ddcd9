package customers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

// AppointmentsStore caches appointments per customer in schedule order.
type AppointmentsStore struct {
	tracker
	tables backend.Tables

	lock         sync.RWMutex
	appointments map[string][]Appointment
}

func NewAppointmentsStore(tables backend.Tables) *AppointmentsStore {
	return &AppointmentsStore{
		tables:       tables,
		appointments: make(map[string][]Appointment),
	}
}

// ListAppointments loads the appointments of a customer, soonest first. It
// returns nil on failure.
func (s *AppointmentsStore) ListAppointments(ctx context.Context, customerID string) []Appointment {
	s.begin()
	defer s.end()

	var rows []Appointment
	q := backend.From(backend.TableAppointments).Eq("customer_id", customerID).OrderBy("scheduled_date", true)
	if err := s.tables.Select(ctx, q, &rows); err != nil {
		s.fail("select", backend.TableAppointments, err, "Failed to fetch appointments")
		log.Err(err).Str("customer", customerID).Msg("Error fetching appointments")
		return nil
	}
	if rows == nil {
		rows = []Appointment{}
	}

	s.lock.Lock()
	s.appointments[customerID] = rows
	s.lock.Unlock()
	return slices.Clone(rows)
}

// ScheduleAppointment books an appointment. Status defaults to scheduled.
func (s *AppointmentsStore) ScheduleAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	s.begin()
	defer s.end()

	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if problems := validateAppointment(in); len(problems) > 0 {
		return nil, s.invalid(problems...)
	}

	var a Appointment
	if err := s.tables.Insert(ctx, backend.TableAppointments, in, &a); err != nil {
		log.Err(err).Str("customer", in.CustomerID).Msg("Error scheduling appointment")
		return nil, s.fail("insert", backend.TableAppointments, err, "Failed to schedule appointment")
	}

	s.lock.Lock()
	list := append(s.appointments[in.CustomerID], a)
	slices.SortStableFunc(list, func(x, y Appointment) int { return x.ScheduledDate.Compare(y.ScheduledDate) })
	s.appointments[in.CustomerID] = list
	s.lock.Unlock()
	return &a, nil
}

// SetAppointmentStatus moves appointment id of customerID to status.
func (s *AppointmentsStore) SetAppointmentStatus(ctx context.Context, customerID, id string, status AppointmentStatus) (*Appointment, error) {
	s.begin()
	defer s.end()

	if !status.Valid() {
		return nil, s.invalid(fmt.Sprintf("Unknown appointment status %q", status))
	}

	var a Appointment
	q := backend.From(backend.TableAppointments).Eq("id", id).Eq("customer_id", customerID).One()
	patch := map[string]AppointmentStatus{"status": status}
	if err := s.tables.Update(ctx, q, patch, &a); err != nil {
		log.Err(err).Str("id", id).Msg("Error updating appointment")
		return nil, s.fail("update", backend.TableAppointments, err, "Failed to update appointment")
	}

	s.lock.Lock()
	list := s.appointments[a.CustomerID]
	if i := slices.IndexFunc(list, func(x Appointment) bool { return x.ID == id }); i >= 0 {
		list[i] = a
	}
	s.lock.Unlock()
	return &a, nil
}

// Appointments returns the cached appointments of a customer.
func (s *AppointmentsStore) Appointments(customerID string) []Appointment {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.appointments[customerID])
}

func validateAppointment(in AppointmentInput) []string {
	var problems []string
	if strings.TrimSpace(in.CustomerID) == "" {
		problems = append(problems, "Customer is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "Title is required")
	}
	if in.ScheduledDate.IsZero() {
		problems = append(problems, "Scheduled date is required")
	}
	if !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("Unknown appointment status %q", in.Status))
	}
	return problems
}
