package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agenda/internal/domain"
	"agenda/internal/service/agenda"
	"agenda/internal/store"
	"agenda/internal/timeline"
)

// Service is the validated surface the handlers call into.
type Service interface {
	UpsertClient(in agenda.ClientInput) (domain.Client, error)
	RemoveClient(id string) error
	UpsertService(in agenda.ServiceInput) (domain.Service, error)
	RemoveService(id string) error
	CreateAppointment(in agenda.AppointmentInput) (domain.Appointment, error)
	UpdateAppointmentStatus(id, status string) error
	RemoveAppointment(id string) error
	Clients() []domain.Client
	Services() []domain.Service
	Appointments() []domain.Appointment
	AppointmentByID(id string) (domain.Appointment, bool)
	Day(date string) (timeline.Day, error)
}

type Server struct {
	svc Service
	log *slog.Logger
}

func NewServer(svc Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "httpapi")),
	}
}

// Handler wires the routes. The prometheus registry may be nil, in which
// case /metrics is not served.
func (s *Server) Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /v1/day", s.handleDay)
	mux.HandleFunc("GET /v1/day/{date}", s.handleDay)

	mux.HandleFunc("GET /v1/clients", s.handleListClients)
	mux.HandleFunc("PUT /v1/clients", s.handleUpsertClient)
	mux.HandleFunc("DELETE /v1/clients/{id}", s.handleRemoveClient)

	mux.HandleFunc("GET /v1/services", s.handleListServices)
	mux.HandleFunc("PUT /v1/services", s.handleUpsertService)
	mux.HandleFunc("DELETE /v1/services/{id}", s.handleRemoveService)

	mux.HandleFunc("GET /v1/appointments", s.handleListAppointments)
	mux.HandleFunc("POST /v1/appointments", s.handleCreateAppointment)
	mux.HandleFunc("GET /v1/appointments/{id}", s.handleAppointmentDetails)
	mux.HandleFunc("PATCH /v1/appointments/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("DELETE /v1/appointments/{id}", s.handleRemoveAppointment)

	return mux
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.svc.Day(r.PathValue("date"))
	if err != nil {
		s.writeServiceError(w, r, err, "day view failed")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

type upsertClientRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"clients": s.svc.Clients()})
}

func (s *Server) handleUpsertClient(w http.ResponseWriter, r *http.Request) {
	var req upsertClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	c, err := s.svc.UpsertClient(agenda.ClientInput{ID: req.ID, Name: req.Name, Phone: req.Phone})
	if err != nil {
		s.writeServiceError(w, r, err, "client upsert failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "client": c})
}

func (s *Server) handleRemoveClient(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveClient(r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "client remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type upsertServiceRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": s.svc.Services()})
}

func (s *Server) handleUpsertService(w http.ResponseWriter, r *http.Request) {
	var req upsertServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	svc, err := s.svc.UpsertService(agenda.ServiceInput{
		ID:          req.ID,
		Name:        req.Name,
		DurationMin: req.DurationMin,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "service upsert failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": svc})
}

func (s *Server) handleRemoveService(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveService(r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "service remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type createAppointmentRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	ClientID  string `json:"client_id"`
	ServiceID string `json:"service_id"`
	Notes     string `json:"notes,omitempty"`
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"appointments": s.svc.Appointments()})
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	appt, err := s.svc.CreateAppointment(agenda.AppointmentInput{
		Date:      req.Date,
		Time:      req.Time,
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			s.log.Info("booking conflict",
				slog.String("date", req.Date),
				slog.String("time", req.Time),
			)
			writeError(w, http.StatusConflict, "slot already booked")
			return
		}
		s.writeServiceError(w, r, err, "appointment create failed")
		return
	}

	s.log.Info("appointment created",
		slog.String("appointment_id", appt.ID),
		slog.String("date", appt.Date.String()),
		slog.String("time", appt.Time.String()),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "appointment": appt})
}

func (s *Server) handleAppointmentDetails(w http.ResponseWriter, r *http.Request) {
	appt, ok := s.svc.AppointmentByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointment": appt})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.svc.UpdateAppointmentStatus(r.PathValue("id"), req.Status); err != nil {
		s.writeServiceError(w, r, err, "status update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRemoveAppointment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveAppointment(r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "appointment remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var vErr *agenda.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	s.log.Error(msg,
		slog.Any("err", err),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": msg})
}
