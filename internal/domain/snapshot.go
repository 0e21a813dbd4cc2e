package domain

// Snapshot is the full persisted state: every mutation rewrites all three
// collections under a single storage key.
type Snapshot struct {
	Clients      []Client      `json:"clients"`
	Services     []Service     `json:"services"`
	Appointments []Appointment `json:"appointments"`
}

// Seed is the state a fresh install starts from when storage holds no
// snapshot yet.
func Seed() Snapshot {
	return Snapshot{
		Clients: []Client{
			{ID: "c1", Name: "Daniel", Phone: "(11) 99999-9999"},
			{ID: "c2", Name: "Maria", Phone: "(11) 98888-8888"},
		},
		Services: []Service{
			{ID: "s1", Name: "Corte", DurationMin: 30, PriceCents: 4000},
			{ID: "s2", Name: "Barba", DurationMin: 20, PriceCents: 2500},
		},
		Appointments: []Appointment{},
	}
}

// Clone deep-copies the snapshot so the caller can hand it to the persist
// queue without racing later mutations.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Clients:      make([]Client, len(s.Clients)),
		Services:     make([]Service, len(s.Services)),
		Appointments: make([]Appointment, len(s.Appointments)),
	}
	copy(out.Clients, s.Clients)
	copy(out.Services, s.Services)
	copy(out.Appointments, s.Appointments)
	return out
}
