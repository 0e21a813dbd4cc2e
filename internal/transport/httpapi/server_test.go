package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agenda/internal/service/agenda"
	"agenda/internal/storage"
	"agenda/internal/store"
	"agenda/internal/timeline"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	st := store.New(store.Options{KV: storage.NewMemory()})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = st.Close(ctx)
	})
	if err := st.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate error: %v", err)
	}
	svc := agenda.NewService(st, timeline.DefaultGrid())
	return Chain(NewServer(svc, nil).Handler(nil), WithRequestID)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not json: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateAppointment_CreatedThenConflict(t *testing.T) {
	h := newTestHandler(t)

	body := `{"date":"2024-01-10","time":"09:00","client_id":"c1","service_id":"s1"}`
	rec := doJSON(t, h, http.MethodPost, "/v1/appointments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\n%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["ok"] != true {
		t.Fatalf("ok = %v, want true", resp["ok"])
	}
	appt, _ := resp["appointment"].(map[string]any)
	if appt == nil || appt["status"] != "SCHEDULED" {
		t.Fatalf("appointment = %v", resp["appointment"])
	}

	// Same slot, different client: structured conflict error.
	body = `{"date":"2024-01-10","time":"09:00","client_id":"c2","service_id":"s2"}`
	rec = doJSON(t, h, http.MethodPost, "/v1/appointments", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409\n%s", rec.Code, rec.Body.String())
	}
	resp = decodeBody(t, rec)
	if resp["ok"] != false {
		t.Fatalf("ok = %v, want false", resp["ok"])
	}
	if resp["error"] != "slot already booked" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestCreateAppointment_ValidationAndBadJSON(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/appointments", `{"date":"bad","time":"09:00","client_id":"c1","service_id":"s1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/appointments", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCancelThenRebookFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/appointments", `{"date":"2024-01-10","time":"09:00","client_id":"c1","service_id":"s1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	id := resp["appointment"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodPatch, "/v1/appointments/"+id+"/status", `{"status":"CANCELED"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d\n%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/appointments", `{"date":"2024-01-10","time":"09:00","client_id":"c2","service_id":"s2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("rebook status = %d\n%s", rec.Code, rec.Body.String())
	}
}

func TestDayView_MarksBookedSlot(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/day/2024-01-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var day timeline.Day
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if len(day.Slots) != 23 {
		t.Fatalf("slots = %d, want 23", len(day.Slots))
	}
	for _, s := range day.Slots {
		if !s.Free {
			t.Fatalf("slot %s occupied on empty day", s.Time)
		}
	}
	if day.Prev.String() != "2024-01-09" || day.Next.String() != "2024-01-11" {
		t.Fatalf("prev/next = %s / %s", day.Prev, day.Next)
	}

	if rec := doJSON(t, h, http.MethodPost, "/v1/appointments", `{"date":"2024-01-10","time":"09:00","client_id":"c1","service_id":"s1"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/day/2024-01-10", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	occupied := 0
	for _, s := range day.Slots {
		if s.Free {
			continue
		}
		occupied++
		if s.Time.String() != "09:00" {
			t.Fatalf("wrong slot occupied: %s", s.Time)
		}
		if s.Entry == nil || s.Entry.ClientName != "Daniel" || s.Entry.ServiceName != "Corte" {
			t.Fatalf("entry = %+v", s.Entry)
		}
	}
	if occupied != 1 {
		t.Fatalf("occupied = %d, want 1", occupied)
	}
}

func TestDayView_BadDate(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/v1/day/10-01-2024", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClientLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPut, "/v1/clients", `{"name":"João","phone":"(11) 97777-7777"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d\n%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	id := resp["client"].(map[string]any)["id"].(string)
	if id == "" {
		t.Fatalf("missing client id")
	}

	rec = doJSON(t, h, http.MethodPut, "/v1/clients", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/v1/clients/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/clients", "")
	resp = decodeBody(t, rec)
	clients, _ := resp["clients"].([]any)
	for _, c := range clients {
		if c.(map[string]any)["id"] == id {
			t.Fatalf("client %s still listed after delete", id)
		}
	}
}

func TestServiceUpsertValidationOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPut, "/v1/services", `{"name":"Sobrancelha","duration_min":0,"price_cents":1500}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "duration_min must be positive" {
		t.Fatalf("error = %v", resp["error"])
	}

	rec = doJSON(t, h, http.MethodPut, "/v1/services", `{"name":"Sobrancelha","duration_min":15,"price_cents":1500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAppointmentDetails(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/appointments/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/appointments", `{"date":"2024-01-10","time":"09:00","client_id":"c1","service_id":"s1","notes":"obs"}`)
	id := decodeBody(t, rec)["appointment"].(map[string]any)["id"].(string)

	rec = doJSON(t, h, http.MethodGet, "/v1/appointments/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	appt := decodeBody(t, rec)["appointment"].(map[string]any)
	if appt["notes"] != "obs" || appt["date"] != "2024-01-10" {
		t.Fatalf("appointment = %v", appt)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing %s header", RequestIDHeader)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}
}
