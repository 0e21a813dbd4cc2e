// Package store owns the three entity collections in memory and is the
// single writer for all of them. Mutators run under one mutex; the only
// asynchronous edge is the snapshot persist queue.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"agenda/internal/domain"
	"agenda/internal/metrics"
	"agenda/internal/storage"
)

// SnapshotKey is the fixed storage key the full snapshot lives under.
const SnapshotKey = "agenda/snapshot/v1"

const defaultPersistTimeout = 5 * time.Second

type Options struct {
	KV             storage.Store
	Key            string        // defaults to SnapshotKey
	Log            *slog.Logger  // defaults to slog.Default()
	Metrics        *metrics.Metrics
	PersistTimeout time.Duration // per-write deadline for the queue worker
}

type Store struct {
	kv             storage.Store
	key            string
	log            *slog.Logger
	metrics        *metrics.Metrics
	persistTimeout time.Duration

	mu           sync.Mutex
	hydrated     bool
	clients      []domain.Client
	services     []domain.Service
	appointments []domain.Appointment

	queue      chan domain.Snapshot
	flushCh    chan chan error
	done       chan struct{}
	workerDone chan struct{}
	closeOnce  sync.Once
}

func New(opts Options) *Store {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	key := opts.Key
	if key == "" {
		key = SnapshotKey
	}
	timeout := opts.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}

	seed := domain.Seed()
	s := &Store{
		kv:             opts.KV,
		key:            key,
		log:            log.With(slog.String("component", "store")),
		metrics:        opts.Metrics,
		persistTimeout: timeout,
		clients:        seed.Clients,
		services:       seed.Services,
		appointments:   seed.Appointments,
		queue:          make(chan domain.Snapshot, 1),
		flushCh:        make(chan chan error),
		done:           make(chan struct{}),
		workerDone:     make(chan struct{}),
	}
	go s.runPersistLoop()
	return s
}

// Hydrate loads the persisted snapshot into memory, falling back to the
// seed defaults when storage has no snapshot or an unreadable one. It is
// idempotent; mutating before Hydrate simply operates on the seeds.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}

	b, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.log.Info("no snapshot in storage, starting from seed data")
	case err != nil:
		return err
	default:
		var snap domain.Snapshot
		if uerr := json.Unmarshal(b, &snap); uerr != nil {
			s.log.Warn("snapshot unreadable, starting from seed data", slog.Any("err", uerr))
		} else {
			s.clients = snap.Clients
			s.services = snap.Services
			s.appointments = snap.Appointments
		}
	}

	s.hydrated = true
	s.log.Info("hydrated",
		slog.Int("clients", len(s.clients)),
		slog.Int("services", len(s.services)),
		slog.Int("appointments", len(s.appointments)),
	)
	return nil
}

func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

type ClientInput struct {
	Name  string
	Phone string
}

// UpsertClient merges into the record matching id, or inserts a new client
// at the front of the collection with a fresh id when id is empty or
// unmatched.
func (s *Store) UpsertClient(in ClientInput, id string) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		for i := range s.clients {
			if s.clients[i].ID == id {
				s.clients[i].Name = in.Name
				s.clients[i].Phone = in.Phone
				out := s.clients[i]
				s.enqueuePersistLocked()
				return out
			}
		}
	}

	c := domain.Client{ID: uuid.NewString(), Name: in.Name, Phone: in.Phone}
	s.clients = append([]domain.Client{c}, s.clients...)
	s.enqueuePersistLocked()
	return c
}

// RemoveClient deletes the client and every appointment referencing it.
// Unknown ids are a no-op apart from the snapshot rewrite.
func (s *Store) RemoveClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = deleteByID(s.clients, func(c domain.Client) string { return c.ID }, id)
	kept := s.appointments[:0]
	for _, a := range s.appointments {
		if a.ClientID != id {
			kept = append(kept, a)
		}
	}
	s.appointments = kept
	s.enqueuePersistLocked()
}

type ServiceInput struct {
	Name        string
	DurationMin int
	PriceCents  int64
}

func (s *Store) UpsertService(in ServiceInput, id string) domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		for i := range s.services {
			if s.services[i].ID == id {
				s.services[i].Name = in.Name
				s.services[i].DurationMin = in.DurationMin
				s.services[i].PriceCents = in.PriceCents
				out := s.services[i]
				s.enqueuePersistLocked()
				return out
			}
		}
	}

	svc := domain.Service{
		ID:          uuid.NewString(),
		Name:        in.Name,
		DurationMin: in.DurationMin,
		PriceCents:  in.PriceCents,
	}
	s.services = append([]domain.Service{svc}, s.services...)
	s.enqueuePersistLocked()
	return svc
}

func (s *Store) RemoveService(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services = deleteByID(s.services, func(v domain.Service) string { return v.ID }, id)
	kept := s.appointments[:0]
	for _, a := range s.appointments {
		if a.ServiceID != id {
			kept = append(kept, a)
		}
	}
	s.appointments = kept
	s.enqueuePersistLocked()
}

type AppointmentInput struct {
	Date      domain.Date
	Time      domain.TimeOfDay
	ClientID  string
	ServiceID string
	Notes     string
}

// CreateAppointment enforces the one business rule: at most one
// non-canceled appointment per (date, time). On conflict nothing is
// mutated and nothing is persisted.
func (s *Store) CreateAppointment(in AppointmentInput) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.appointments {
		if a.Date == in.Date && a.Time == in.Time && a.Blocks() {
			s.metrics.BookingConflict()
			return domain.Appointment{}, ErrSlotTaken
		}
	}

	appt := domain.Appointment{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Time:      in.Time,
		ClientID:  in.ClientID,
		ServiceID: in.ServiceID,
		Notes:     in.Notes,
		Status:    domain.StatusScheduled,
		CreatedAt: time.Now().UTC(),
	}
	s.appointments = append([]domain.Appointment{appt}, s.appointments...)
	s.metrics.AppointmentCreated()
	s.enqueuePersistLocked()
	return appt, nil
}

// UpdateAppointmentStatus overwrites the status unconditionally; any of the
// three values is reachable from any other. Unknown ids are a no-op.
func (s *Store) UpdateAppointmentStatus(id string, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i].Status = status
			s.enqueuePersistLocked()
			return
		}
	}
}

func (s *Store) RemoveAppointment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appointments = deleteByID(s.appointments, func(a domain.Appointment) string { return a.ID }, id)
	s.enqueuePersistLocked()
}

func (s *Store) Clients() []domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Client, len(s.clients))
	copy(out, s.clients)
	return out
}

func (s *Store) Services() []domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out
}

func (s *Store) Appointments() []domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

func (s *Store) AppointmentByID(id string) (domain.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Appointment{}, false
}

func (s *Store) AppointmentsOn(date domain.Date) []domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Appointment
	for _, a := range s.appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot returns a deep copy of current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Clients:      s.clients,
		Services:     s.services,
		Appointments: s.appointments,
	}.Clone()
}

func deleteByID[T any](items []T, idOf func(T) string, id string) []T {
	kept := items[:0]
	for _, it := range items {
		if idOf(it) != id {
			kept = append(kept, it)
		}
	}
	return kept
}
