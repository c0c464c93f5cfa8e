package models

import "time"

// Ticket is a movie ticket for a single seat.
type Ticket struct {
	ID        string     `json:"id"`
	Movie     string     `json:"movie"`
	Placement uint64     `json:"seat"`
	Reserved  bool       `json:"reserved"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TicketPayload carries the caller-editable ticket fields.
type TicketPayload struct {
	Movie     string `json:"movie"`
	Placement uint64 `json:"seat"`
}

func (p TicketPayload) Validate() error {
	var v validation
	v.requireString("movie", p.Movie)
	v.requirePositive("seat", p.Placement)
	return v.err()
}
