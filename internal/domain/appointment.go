package domain

import "time"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusDone      Status = "DONE"
	StatusCanceled  Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusDone, StatusCanceled:
		return true
	}
	return false
}

type Appointment struct {
	ID        string    `json:"id"`
	Date      Date      `json:"date"`
	Time      TimeOfDay `json:"time"`
	ClientID  string    `json:"client_id"`
	ServiceID string    `json:"service_id"`
	Notes     string    `json:"notes,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Blocks reports whether the appointment occupies a booking slot. Canceled
// appointments keep their timeline row but do not block new bookings.
func (a Appointment) Blocks() bool {
	return a.Status != StatusCanceled
}
