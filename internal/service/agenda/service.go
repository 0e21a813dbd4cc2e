package agenda

import (
	"strings"
	"time"

	"agenda/internal/domain"
	"agenda/internal/store"
	"agenda/internal/timeline"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Store is the slice of the entity store the service needs.
type Store interface {
	UpsertClient(in store.ClientInput, id string) domain.Client
	RemoveClient(id string)
	UpsertService(in store.ServiceInput, id string) domain.Service
	RemoveService(id string)
	CreateAppointment(in store.AppointmentInput) (domain.Appointment, error)
	UpdateAppointmentStatus(id string, status domain.Status)
	RemoveAppointment(id string)
	Clients() []domain.Client
	Services() []domain.Service
	Appointments() []domain.Appointment
	AppointmentByID(id string) (domain.Appointment, bool)
	AppointmentsOn(date domain.Date) []domain.Appointment
}

type Service struct {
	store Store
	grid  timeline.Grid
}

func NewService(st Store, grid timeline.Grid) *Service {
	return &Service{store: st, grid: grid}
}

type ClientInput struct {
	ID    string
	Name  string
	Phone string
}

func (s *Service) UpsertClient(in ClientInput) (domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Client{}, validationError("name is required")
	}
	return s.store.UpsertClient(store.ClientInput{
		Name:  name,
		Phone: strings.TrimSpace(in.Phone),
	}, strings.TrimSpace(in.ID)), nil
}

func (s *Service) RemoveClient(id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("id is required")
	}
	s.store.RemoveClient(id)
	return nil
}

type ServiceInput struct {
	ID          string
	Name        string
	DurationMin int
	PriceCents  int64
}

func (s *Service) UpsertService(in ServiceInput) (domain.Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Service{}, validationError("name is required")
	}
	if in.DurationMin <= 0 {
		return domain.Service{}, validationError("duration_min must be positive")
	}
	if in.PriceCents < 0 {
		return domain.Service{}, validationError("price_cents must not be negative")
	}
	return s.store.UpsertService(store.ServiceInput{
		Name:        name,
		DurationMin: in.DurationMin,
		PriceCents:  in.PriceCents,
	}, strings.TrimSpace(in.ID)), nil
}

func (s *Service) RemoveService(id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("id is required")
	}
	s.store.RemoveService(id)
	return nil
}

type AppointmentInput struct {
	Date      string
	Time      string
	ClientID  string
	ServiceID string
	Notes     string
}

func (s *Service) CreateAppointment(in AppointmentInput) (domain.Appointment, error) {
	date, err := domain.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return domain.Appointment{}, validationError(err.Error())
	}
	tod, err := domain.ParseTimeOfDay(strings.TrimSpace(in.Time))
	if err != nil {
		return domain.Appointment{}, validationError(err.Error())
	}
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return domain.Appointment{}, validationError("client_id is required")
	}
	serviceID := strings.TrimSpace(in.ServiceID)
	if serviceID == "" {
		return domain.Appointment{}, validationError("service_id is required")
	}

	return s.store.CreateAppointment(store.AppointmentInput{
		Date:      date,
		Time:      tod,
		ClientID:  clientID,
		ServiceID: serviceID,
		Notes:     in.Notes,
	})
}

func (s *Service) UpdateAppointmentStatus(id, status string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("id is required")
	}
	st := domain.Status(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return validationError("status must be SCHEDULED, DONE or CANCELED")
	}
	s.store.UpdateAppointmentStatus(id, st)
	return nil
}

func (s *Service) RemoveAppointment(id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("id is required")
	}
	s.store.RemoveAppointment(id)
	return nil
}

func (s *Service) Clients() []domain.Client {
	return s.store.Clients()
}

func (s *Service) Services() []domain.Service {
	return s.store.Services()
}

func (s *Service) Appointments() []domain.Appointment {
	return s.store.Appointments()
}

func (s *Service) AppointmentByID(id string) (domain.Appointment, bool) {
	return s.store.AppointmentByID(id)
}

// Day derives the timeline for the given date. An empty date means today
// (local wall clock, no timezone conversion).
func (s *Service) Day(date string) (timeline.Day, error) {
	d := domain.DateOf(time.Now())
	if trimmed := strings.TrimSpace(date); trimmed != "" {
		parsed, err := domain.ParseDate(trimmed)
		if err != nil {
			return timeline.Day{}, validationError(err.Error())
		}
		d = parsed
	}
	return timeline.BuildDay(s.grid, d, s.store.AppointmentsOn(d), s.store.Clients(), s.store.Services())
}
