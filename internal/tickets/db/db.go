package db

import (
	"context"
	"fmt"

	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
	"ms-bookings/internal/repository"
)

type DB struct {
	Tickets *repository.Repository[models.Ticket]
}

func New(store kv.Store) *DB {
	return &DB{Tickets: repository.New[models.Ticket](store, "ticket")}
}

// GetTicketByID returns nil, nil when the ticket does not exist.
func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, ok, err := d.Tickets.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &ticket, nil
}

func (d *DB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := d.Tickets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (d *DB) SaveTicket(ctx context.Context, ticket models.Ticket) error {
	if _, _, err := d.Tickets.Save(ctx, ticket.ID, ticket); err != nil {
		return fmt.Errorf("save ticket %s: %w", ticket.ID, err)
	}
	return nil
}

// DeleteTicket removes the ticket and returns it, or nil when it was absent.
func (d *DB) DeleteTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, existed, err := d.Tickets.Erase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if !existed {
		return nil, nil
	}
	return &ticket, nil
}
