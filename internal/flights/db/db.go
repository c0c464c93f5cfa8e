package db

import (
	"context"
	"fmt"

	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
	"ms-bookings/internal/repository"
)

type FlightDB struct {
	Flights *repository.Repository[models.Flight]
}

func NewFlightDB(store kv.Store) *FlightDB {
	return &FlightDB{Flights: repository.New[models.Flight](store, "flight")}
}

// normalize makes an empty passenger list encode and compare the same way
// whether it was never set or emptied.
func normalize(flight *models.Flight) {
	if flight.Users == nil {
		flight.Users = []models.User{}
	}
}

// GetFlightByID returns nil, nil when the flight does not exist.
func (d *FlightDB) GetFlightByID(ctx context.Context, id string) (*models.Flight, error) {
	flight, ok, err := d.Flights.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get flight %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	normalize(&flight)
	return &flight, nil
}

func (d *FlightDB) ListFlights(ctx context.Context) ([]models.Flight, error) {
	flights, err := d.Flights.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	for i := range flights {
		normalize(&flights[i])
	}
	return flights, nil
}

func (d *FlightDB) SaveFlight(ctx context.Context, flight models.Flight) error {
	normalize(&flight)
	if _, _, err := d.Flights.Save(ctx, flight.ID, flight); err != nil {
		return fmt.Errorf("save flight %s: %w", flight.ID, err)
	}
	return nil
}

func (d *FlightDB) DeleteFlight(ctx context.Context, id string) (*models.Flight, error) {
	flight, existed, err := d.Flights.Erase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete flight %s: %w", id, err)
	}
	if !existed {
		return nil, nil
	}
	normalize(&flight)
	return &flight, nil
}
