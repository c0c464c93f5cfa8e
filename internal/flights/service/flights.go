package flights

import (
	"context"
	"fmt"

	"ms-bookings/internal/events"
	"ms-bookings/internal/models"
)

func flightNotFound(id string) error {
	return fmt.Errorf("%w: id=%s", models.ErrFlightNotFound, id)
}

func (s *FlightService) loadFlight(ctx context.Context, id string) (*models.Flight, error) {
	flight, err := s.Flights.GetFlightByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, flightNotFound(id)
	}
	return flight, nil
}

// CreateFlight records the caller as the flight's owner.
func (s *FlightService) CreateFlight(ctx context.Context, payload models.FlightPayload) (*models.Flight, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var flight models.Flight
	err := s.withLock(ctx, func() error {
		flight = models.Flight{
			ID:                s.IDs.NewID(),
			Owner:             s.Identity(ctx),
			CompanyName:       payload.CompanyName,
			DepartureLocation: payload.DepartureLocation,
			ArrivalLocation:   payload.ArrivalLocation,
			DepartureDate:     payload.DepartureDate,
			Users:             []models.User{},
			CreatedAt:         s.Clock.Now(),
		}
		return s.Flights.SaveFlight(ctx, flight)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	s.Logger.Info("FLIGHT", fmt.Sprintf("Flight %s created by %s", flight.ID, flight.Owner))
	s.publish(ctx, events.FlightCreated, flight.ID, &flight)
	return &flight, nil
}

func (s *FlightService) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	var flight *models.Flight
	err := s.withLock(ctx, func() (err error) {
		flight, err = s.loadFlight(ctx, id)
		return err
	})
	return flight, err
}

func (s *FlightService) ListFlights(ctx context.Context) ([]models.Flight, error) {
	var flights []models.Flight
	err := s.withLock(ctx, func() (err error) {
		flights, err = s.Flights.ListFlights(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if flights == nil {
		flights = []models.Flight{}
	}
	return flights, nil
}

// UpdateFlight replaces the route fields. Owner and passengers are kept.
func (s *FlightService) UpdateFlight(ctx context.Context, id string, payload models.FlightPayload) (*models.Flight, error) {
	var flight *models.Flight
	err := s.withLock(ctx, func() (err error) {
		flight, err = s.loadFlight(ctx, id)
		if err != nil {
			return err
		}
		if err := payload.Validate(); err != nil {
			return err
		}
		now := s.Clock.Now()
		flight.CompanyName = payload.CompanyName
		flight.DepartureLocation = payload.DepartureLocation
		flight.ArrivalLocation = payload.ArrivalLocation
		flight.DepartureDate = payload.DepartureDate
		flight.UpdatedAt = &now
		return s.Flights.SaveFlight(ctx, *flight)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("FLIGHT", fmt.Sprintf("Flight %s updated", id))
	s.publish(ctx, events.FlightUpdated, id, flight)
	return flight, nil
}

func (s *FlightService) DeleteFlight(ctx context.Context, id string) (*models.Flight, error) {
	var removed *models.Flight
	err := s.withLock(ctx, func() (err error) {
		removed, err = s.Flights.DeleteFlight(ctx, id)
		if err == nil && removed == nil {
			err = flightNotFound(id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("FLIGHT", fmt.Sprintf("Flight %s deleted", id))
	s.publish(ctx, events.FlightDeleted, id, removed)
	return removed, nil
}

// BookFlight adds a snapshot of the user to the flight. Booking a user who
// is already on the flight returns the flight unchanged.
func (s *FlightService) BookFlight(ctx context.Context, flightID, userID string) (*models.Flight, error) {
	var (
		flight *models.Flight
		booked bool
	)
	err := s.withLock(ctx, func() (err error) {
		flight, err = s.loadFlight(ctx, flightID)
		if err != nil {
			return err
		}
		user, err := s.loadUser(ctx, userID)
		if err != nil {
			return err
		}
		if flight.HasUser(userID) {
			return nil
		}
		now := s.Clock.Now()
		flight.Users = append(flight.Users, *user)
		flight.UpdatedAt = &now
		booked = true
		return s.Flights.SaveFlight(ctx, *flight)
	})
	if err != nil {
		return nil, err
	}

	if booked {
		s.Logger.Info("FLIGHT", fmt.Sprintf("User %s booked on flight %s", userID, flightID))
		s.publish(ctx, events.FlightBooked, flightID, flight)
	}
	return flight, nil
}
