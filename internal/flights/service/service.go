package flights

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

// lockName is shared by user and flight operations because booking reads
// both stores.
const lockName = "flights"

type FlightDBLayer interface {
	GetFlightByID(ctx context.Context, id string) (*models.Flight, error)
	ListFlights(ctx context.Context) ([]models.Flight, error)
	SaveFlight(ctx context.Context, flight models.Flight) error
	DeleteFlight(ctx context.Context, id string) (*models.Flight, error)
}

type UserDBLayer interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id string) (*models.User, error)
}

type FlightService struct {
	Flights   FlightDBLayer
	Users     UserDBLayer
	Clock     clock.Clock
	IDs       idgen.Generator
	Locker    lock.Locker
	Publisher events.Publisher
	Identity  func(context.Context) string
	Logger    *logger.Logger
}

func NewFlightService(flights FlightDBLayer, users UserDBLayer, locker lock.Locker, publisher events.Publisher, log *logger.Logger) *FlightService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &FlightService{
		Flights:   flights,
		Users:     users,
		Clock:     clock.Real(),
		IDs:       idgen.UUID{},
		Locker:    locker,
		Publisher: publisher,
		Identity:  auth.Identity,
		Logger:    log,
	}
}

func (s *FlightService) withLock(ctx context.Context, fn func() error) error {
	unlock, err := s.Locker.Lock(ctx, lockName)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func (s *FlightService) publish(ctx context.Context, eventType, entityID string, data any) {
	event := events.Event{
		Type:       eventType,
		EntityID:   entityID,
		Actor:      s.Identity(ctx),
		OccurredAt: s.Clock.Now(),
		Data:       data,
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Logger.Warn("EVENTS", fmt.Sprintf("publish %s for %s failed: %v", eventType, entityID, err))
	}
}
