package tickets

import (
	"context"
	"fmt"

	"ms-bookings/internal/auth"
	"ms-bookings/internal/clock"
	"ms-bookings/internal/events"
	"ms-bookings/internal/idgen"
	"ms-bookings/internal/lock"
	"ms-bookings/internal/logger"
	"ms-bookings/internal/models"
)

// lockName guards every ticket operation, reads included.
const lockName = "tickets"

type TicketDBLayer interface {
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	SaveTicket(ctx context.Context, ticket models.Ticket) error
	DeleteTicket(ctx context.Context, id string) (*models.Ticket, error)
}

type TicketService struct {
	DB        TicketDBLayer
	Clock     clock.Clock
	IDs       idgen.Generator
	Locker    lock.Locker
	Publisher events.Publisher
	Identity  func(context.Context) string
	Logger    *logger.Logger
}

// NewTicketService wires db with production defaults. Callers may replace
// any exported field before first use.
func NewTicketService(db TicketDBLayer, locker lock.Locker, publisher events.Publisher, log *logger.Logger) *TicketService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TicketService{
		DB:        db,
		Clock:     clock.Real(),
		IDs:       idgen.UUID{},
		Locker:    locker,
		Publisher: publisher,
		Identity:  auth.Identity,
		Logger:    log,
	}
}

func ticketNotFound(id string) error {
	return fmt.Errorf("ticket with id=%s %w", id, models.ErrNotFound)
}

func (s *TicketService) withLock(ctx context.Context, fn func() error) error {
	unlock, err := s.Locker.Lock(ctx, lockName)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// load returns the ticket or a not-found error. Callers hold the lock.
func (s *TicketService) load(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ticketNotFound(id)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType string, ticket *models.Ticket) {
	event := events.Event{
		Type:       eventType,
		EntityID:   ticket.ID,
		Actor:      s.Identity(ctx),
		OccurredAt: s.Clock.Now(),
		Data:       ticket,
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Warn("EVENTS", fmt.Sprintf("publish %s for ticket %s failed: %v", eventType, ticket.ID, err))
	}
}

func (s *TicketService) AddTicket(ctx context.Context, payload models.TicketPayload) (*models.Ticket, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var ticket models.Ticket
	err := s.withLock(ctx, func() error {
		ticket = models.Ticket{
			ID:        s.IDs.NewID(),
			Movie:     payload.Movie,
			Placement: payload.Placement,
			CreatedAt: s.Clock.Now(),
		}
		return s.DB.SaveTicket(ctx, ticket)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add ticket: %w", err)
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s added for %q seat %d", ticket.ID, ticket.Movie, ticket.Placement))
	s.publish(ctx, events.TicketCreated, &ticket)
	return &ticket, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket *models.Ticket
	err := s.withLock(ctx, func() (err error) {
		ticket, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) GetAllTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.withLock(ctx, func() (err error) {
		tickets, err = s.DB.ListTickets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return tickets, nil
}

// UpdateTicket replaces movie and seat. The reservation state, id and
// creation time are kept.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, payload models.TicketPayload) (*models.Ticket, error) {
	var ticket *models.Ticket
	err := s.withLock(ctx, func() (err error) {
		ticket, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := payload.Validate(); err != nil {
			return err
		}
		now := s.Clock.Now()
		ticket.Movie = payload.Movie
		ticket.Placement = payload.Placement
		ticket.UpdatedAt = &now
		return s.DB.SaveTicket(ctx, *ticket)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s updated", id))
	s.publish(ctx, events.TicketUpdated, ticket)
	return ticket, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var removed *models.Ticket
	err := s.withLock(ctx, func() (err error) {
		removed, err = s.DB.DeleteTicket(ctx, id)
		if err == nil && removed == nil {
			err = ticketNotFound(id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s deleted", id))
	s.publish(ctx, events.TicketDeleted, removed)
	return removed, nil
}

// BuyTicket moves a free ticket to reserved. A reserved ticket is left as
// is and ErrAlreadyReserved is returned.
func (s *TicketService) BuyTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.transition(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s reserved", id))
	s.publish(ctx, events.TicketReserved, ticket)
	return ticket, nil
}

// ReserveTicket is BuyTicket under the name older clients use.
func (s *TicketService) ReserveTicket(ctx context.Context, id string) (*models.Ticket, error) {
	return s.BuyTicket(ctx, id)
}

// RevokeTicket moves a reserved ticket back to free and persists it.
func (s *TicketService) RevokeTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.transition(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s revoked", id))
	s.publish(ctx, events.TicketRevoked, ticket)
	return ticket, nil
}

func (s *TicketService) transition(ctx context.Context, id string, reserve bool) (*models.Ticket, error) {
	var ticket *models.Ticket
	err := s.withLock(ctx, func() (err error) {
		ticket, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case reserve && ticket.Reserved:
			return models.ErrAlreadyReserved
		case !reserve && !ticket.Reserved:
			return models.ErrNotReserved
		}
		now := s.Clock.Now()
		ticket.Reserved = reserve
		ticket.UpdatedAt = &now
		return s.DB.SaveTicket(ctx, *ticket)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}
