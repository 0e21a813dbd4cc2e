package domain

// Service is a bookable offering. Price is stored in cents so snapshots
// never carry floating-point currency.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
}
