package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process counters. A nil *Metrics is valid and records
// nothing, so tests can pass nil instead of wiring a registry.
type Metrics struct {
	registry *prometheus.Registry

	appointmentsCreated prometheus.Counter
	bookingConflicts    prometheus.Counter
	snapshotPersists    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		registry: reg,
		appointmentsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agenda_appointments_created_total",
			Help: "Appointments created successfully.",
		}),
		bookingConflicts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agenda_booking_conflicts_total",
			Help: "Appointment creations rejected because the slot was taken.",
		}),
		snapshotPersists: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_snapshot_persists_total",
			Help: "Snapshot writes to the storage backend, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AppointmentCreated() {
	if m == nil {
		return
	}
	m.appointmentsCreated.Inc()
}

func (m *Metrics) BookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

func (m *Metrics) SnapshotPersisted(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotPersists.WithLabelValues(result).Inc()
}
