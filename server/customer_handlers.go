package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/sprinkler-crm/customers"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

type customersView struct {
	Route     string               `json:"route"`
	Customers []customers.Customer `json:"customers"`
	Total     int                  `json:"total"`
	Query     string               `json:"query"`
	Error     string               `json:"error,omitempty"`
}

// CustomersViewHandler refreshes the collection and answers the filtered list.
// A failed refresh still answers, with the cached rows and the error.
func (s *Server) CustomersViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if q, ok := r.URL.Query()["q"]; ok {
			s.customers.SetSearchQuery(strings.Join(q, " "))
		}
		s.customers.FetchCustomers(r.Context())
		writeJSON(w, http.StatusOK, customersView{
			Route:     RouteNameCustomers,
			Customers: s.customers.FilteredCustomers(),
			Total:     s.customers.TotalCustomers(),
			Query:     s.customers.SearchQuery(),
			Error:     s.customers.Error(),
		})
	}
}

type formField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Min      int    `json:"minLength,omitempty"`
}

var customerFormFields = []formField{
	{Name: "first_name", Label: "First name", Required: true, Min: 2},
	{Name: "last_name", Label: "Last name", Required: true, Min: 2},
	{Name: "phone", Label: "Phone", Required: true, Min: 10},
	{Name: "address", Label: "Address", Required: true, Min: 10},
	{Name: "latitude", Label: "Latitude"},
	{Name: "longitude", Label: "Longitude"},
}

type customerFormView struct {
	Route    string              `json:"route"`
	Fields   []formField         `json:"fields"`
	Customer *customers.Customer `json:"customer,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (s *Server) AddCustomerViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, customerFormView{Route: RouteNameCustomersAdd, Fields: customerFormFields})
	}
}

type customerDetailView struct {
	Route        string                  `json:"route"`
	Customer     *customers.Customer     `json:"customer"`
	FullName     string                  `json:"fullName"`
	Notes        []customers.Note        `json:"notes"`
	Appointments []customers.Appointment `json:"appointments"`
	Error        string                  `json:"error,omitempty"`
}

// CustomerDetailViewHandler answers the customer with its notes and
// appointments. A failed refresh of either falls back to the cached rows.
func (s *Server) CustomerDetailViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		c := s.customers.FetchCustomer(r.Context(), id)
		if c == nil {
			writeJSON(w, http.StatusNotFound, customerDetailView{Route: RouteNameCustomerDetail, Error: s.customers.Error()})
			return
		}

		view := customerDetailView{
			Route:    RouteNameCustomerDetail,
			Customer: c,
			FullName: customers.FullName(*c),
		}
		if view.Notes = s.notes.ListNotes(r.Context(), id); view.Notes == nil {
			view.Notes = s.notes.Notes(id)
			view.Error = s.notes.Error()
		}
		if view.Appointments = s.appointments.ListAppointments(r.Context(), id); view.Appointments == nil {
			view.Appointments = s.appointments.Appointments(id)
			view.Error = s.appointments.Error()
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) EditCustomerViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.customers.FetchCustomer(r.Context(), r.PathValue("id"))
		if c == nil {
			writeJSON(w, http.StatusNotFound, customerFormView{Route: RouteNameCustomerEdit, Error: s.customers.Error()})
			return
		}
		writeJSON(w, http.StatusOK, customerFormView{Route: RouteNameCustomerEdit, Fields: customerFormFields, Customer: c})
	}
}

func (s *Server) CreateCustomerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.currentUserID()
		if err != nil {
			writeError(w, err)
			return
		}
		var rec map[string]any
		if err := decodeJSON(r, &rec); err != nil {
			writeError(w, err)
			return
		}
		if err := customers.ValidateCustomerData(rec).Err(); err != nil {
			writeError(w, err)
			return
		}

		c, err := s.customers.CreateCustomer(r.Context(), customers.InputFromRecord(rec, userID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// UpdateCustomerHandler validates the patch merged over the stored customer so
// partial updates are held to the same rules as a create.
func (s *Server) UpdateCustomerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var patch map[string]any
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, err)
			return
		}

		existing := s.customers.FetchCustomer(r.Context(), id)
		if existing == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: s.customers.Error()})
			return
		}
		merged := recordOf(*existing)
		for k, v := range patch {
			merged[k] = v
		}
		if err := customers.ValidateCustomerData(merged).Err(); err != nil {
			writeError(w, err)
			return
		}

		in := customers.InputFromRecord(merged, existing.UserID)
		updated, err := s.customers.UpdateCustomer(r.Context(), id, customers.CustomerUpdate{
			FirstName:      &in.FirstName,
			LastName:       &in.LastName,
			Phone:          &in.Phone,
			Address:        &in.Address,
			Latitude:       in.Latitude,
			Longitude:      in.Longitude,
			ClearLatitude:  in.Latitude == nil,
			ClearLongitude: in.Longitude == nil,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func recordOf(c customers.Customer) map[string]any {
	rec := map[string]any{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"phone":      c.Phone,
		"address":    c.Address,
	}
	if c.Latitude != nil {
		rec["latitude"] = *c.Latitude
	}
	if c.Longitude != nil {
		rec["longitude"] = *c.Longitude
	}
	return rec
}

func (s *Server) DeleteCustomerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.customers.DeleteCustomer(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportCustomersHandler accepts a text/csv body, or a JSON array of records.
func (s *Server) ImportCustomersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.currentUserID()
		if err != nil {
			writeError(w, err)
			return
		}

		var records []map[string]any
		if mediaType(r) == mimeJSON {
			err = decodeJSON(r, &records)
		} else {
			records, err = customers.ReadCSV(http.MaxBytesReader(w, r.Body, 10<<20))
			if err != nil {
				err = &apperrors.ValidationError{Problems: []string{err.Error()}}
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}

		report, err := customers.ImportRecords(r.Context(), s.customers, userID, records)
		if err != nil {
			zerolog.Ctx(r.Context()).Err(err).Int("rows", len(records)).Msg("Import failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) ListNotesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes := s.notes.ListNotes(r.Context(), r.PathValue("id"))
		if notes == nil {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: s.notes.Error()})
			return
		}
		writeJSON(w, http.StatusOK, notes)
	}
}

func (s *Server) AddNoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.currentUserID()
		if err != nil {
			writeError(w, err)
			return
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		n, err := s.notes.AddNote(r.Context(), r.PathValue("id"), userID, body.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, n)
	}
}

func (s *Server) DeleteNoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.notes.DeleteNote(r.Context(), r.PathValue("id"), r.PathValue("noteID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListAppointmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts := s.appointments.ListAppointments(r.Context(), r.PathValue("id"))
		if appts == nil {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: s.appointments.Error()})
			return
		}
		writeJSON(w, http.StatusOK, appts)
	}
}

func (s *Server) ScheduleAppointmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.currentUserID()
		if err != nil {
			writeError(w, err)
			return
		}
		var body struct {
			Title         string    `json:"title"`
			Description   string    `json:"description"`
			ScheduledDate time.Time `json:"scheduled_date"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		a, err := s.appointments.ScheduleAppointment(r.Context(), customers.AppointmentInput{
			CustomerID:    r.PathValue("id"),
			UserID:        userID,
			Title:         body.Title,
			Description:   body.Description,
			ScheduledDate: body.ScheduledDate,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func (s *Server) AppointmentStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status customers.AppointmentStatus `json:"status"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
		a, err := s.appointments.SetAppointmentStatus(r.Context(), r.PathValue("id"), r.PathValue("apptID"), body.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
