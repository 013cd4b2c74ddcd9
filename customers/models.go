package customers

import (
	"encoding/json"
	"fmt"
	"time"
)

// Customer is a row of the customers table.
type Customer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName is "<first> <last>".
func FullName(c Customer) string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// CustomerInput is the insertable part of a customer. The backend assigns the
// id and timestamps.
type CustomerInput struct {
	UserID    string   `json:"user_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CustomerUpdate patches a customer. Nil fields are left unchanged.
// ClearLatitude and ClearLongitude store null.
type CustomerUpdate struct {
	FirstName      *string
	LastName       *string
	Phone          *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	ClearLatitude  bool
	ClearLongitude bool
	UpdatedAt      *time.Time
}

// MarshalJSON renders the patch body: set fields only, with an explicit null
// for a cleared coordinate.
func (u CustomerUpdate) MarshalJSON() ([]byte, error) {
	patch := make(map[string]any)
	if u.FirstName != nil {
		patch["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		patch["last_name"] = *u.LastName
	}
	if u.Phone != nil {
		patch["phone"] = *u.Phone
	}
	if u.Address != nil {
		patch["address"] = *u.Address
	}
	switch {
	case u.ClearLatitude:
		patch["latitude"] = nil
	case u.Latitude != nil:
		patch["latitude"] = *u.Latitude
	}
	switch {
	case u.ClearLongitude:
		patch["longitude"] = nil
	case u.Longitude != nil:
		patch["longitude"] = *u.Longitude
	}
	if u.UpdatedAt != nil {
		patch["updated_at"] = *u.UpdatedAt
	}
	return json.Marshal(patch)
}

// Note is a row of the customer_notes table.
type Note struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type noteInput struct {
	CustomerID string `json:"customer_id"`
	UserID     string `json:"user_id"`
	Content    string `json:"content"`
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a row of the appointments table.
type Appointment struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	UserID        string            `json:"user_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	Status        AppointmentStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// AppointmentInput is the insertable part of an appointment.
type AppointmentInput struct {
	CustomerID    string            `json:"customer_id"`
	UserID        string            `json:"user_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	Status        AppointmentStatus `json:"status"`
}
