// Package timeline derives the day view: a fixed slot grid with each slot
// either free or resolved to display data for the appointment sitting on it.
package timeline

import (
	"fmt"

	"agenda/internal/domain"
)

// Grid is the slot layout of a working day. The end hour contributes only
// its :00 slot, so the default 08:00-19:00 / 30min grid ends at 19:00.
type Grid struct {
	StartHour   int
	EndHour     int
	StepMinutes int
}

func DefaultGrid() Grid {
	return Grid{StartHour: 8, EndHour: 19, StepMinutes: 30}
}

func (g Grid) Validate() error {
	if g.StartHour < 0 || g.StartHour > 23 {
		return fmt.Errorf("start hour %d out of range", g.StartHour)
	}
	if g.EndHour < g.StartHour || g.EndHour > 23 {
		return fmt.Errorf("end hour %d out of range", g.EndHour)
	}
	if g.StepMinutes <= 0 || g.StepMinutes > 60 {
		return fmt.Errorf("step %d out of range", g.StepMinutes)
	}
	return nil
}

// Slots returns the ordered slot times of the grid.
func (g Grid) Slots() []domain.TimeOfDay {
	var out []domain.TimeOfDay
	for h := g.StartHour; h <= g.EndHour; h++ {
		for m := 0; m < 60; m += g.StepMinutes {
			if h == g.EndHour && m > 0 {
				break
			}
			out = append(out, domain.NewTimeOfDay(h, m))
		}
	}
	return out
}

// Entry is the display data of an occupied slot. Client and service
// references may point at deleted records; display falls back to generic
// placeholders so the timeline never dangles.
type Entry struct {
	AppointmentID string        `json:"appointment_id"`
	Status        domain.Status `json:"status"`
	ClientName    string        `json:"client_name"`
	ServiceName   string        `json:"service_name"`
	DurationMin   int           `json:"duration_min"`
	PriceCents    int64         `json:"price_cents"`
	Notes         string        `json:"notes,omitempty"`
}

type Slot struct {
	Time  domain.TimeOfDay `json:"time"`
	Free  bool             `json:"free"`
	Entry *Entry           `json:"entry,omitempty"`
}

// Day is the derived view for one date, with the neighbouring dates for
// previous/next navigation.
type Day struct {
	Date  domain.Date `json:"date"`
	Prev  domain.Date `json:"prev"`
	Next  domain.Date `json:"next"`
	Slots []Slot      `json:"slots"`
}

const (
	placeholderClient  = "Cliente"
	placeholderService = "Serviço"
)

// BuildDay marks every grid slot free or occupied for the given date.
// Canceled appointments still occupy their slot visually (the status field
// tells them apart); only the create-time conflict rule treats the slot as
// rebookable. When a canceled and a live appointment share a slot, the live
// one is shown.
func BuildDay(g Grid, date domain.Date, appts []domain.Appointment, clients []domain.Client, services []domain.Service) (Day, error) {
	if err := g.Validate(); err != nil {
		return Day{}, err
	}

	byTime := make(map[domain.TimeOfDay]domain.Appointment)
	for _, a := range appts {
		if a.Date != date {
			continue
		}
		if cur, ok := byTime[a.Time]; ok && cur.Blocks() && !a.Blocks() {
			continue
		}
		byTime[a.Time] = a
	}

	clientNames := make(map[string]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	serviceByID := make(map[string]domain.Service, len(services))
	for _, s := range services {
		serviceByID[s.ID] = s
	}

	times := g.Slots()
	day := Day{
		Date:  date,
		Prev:  date.AddDays(-1),
		Next:  date.AddDays(1),
		Slots: make([]Slot, 0, len(times)),
	}
	for _, t := range times {
		appt, occupied := byTime[t]
		if !occupied {
			day.Slots = append(day.Slots, Slot{Time: t, Free: true})
			continue
		}
		day.Slots = append(day.Slots, Slot{
			Time:  t,
			Entry: resolveEntry(appt, clientNames, serviceByID),
		})
	}
	return day, nil
}

func resolveEntry(a domain.Appointment, clientNames map[string]string, services map[string]domain.Service) *Entry {
	e := &Entry{
		AppointmentID: a.ID,
		Status:        a.Status,
		ClientName:    placeholderClient,
		ServiceName:   placeholderService,
		Notes:         a.Notes,
	}
	if name, ok := clientNames[a.ClientID]; ok {
		e.ClientName = name
	}
	if svc, ok := services[a.ServiceID]; ok {
		e.ServiceName = svc.Name
		e.DurationMin = svc.DurationMin
		e.PriceCents = svc.PriceCents
	}
	return e
}
