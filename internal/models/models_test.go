package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketPayloadValidate(t *testing.T) {
	assert.NoError(t, TicketPayload{Movie: "Dune", Placement: 5}.Validate())

	err := TicketPayload{Movie: "   ", Placement: 0}.Validate()
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "movie must not be empty")
	assert.Contains(t, err.Error(), "seat must be greater than zero")
}

func TestUserPayloadValidate(t *testing.T) {
	assert.NoError(t, UserPayload{Name: "Ada", Email: "ada@example.com", Age: 36}.Validate())
	assert.ErrorIs(t, UserPayload{Name: "Ada", Email: "", Age: 36}.Validate(), ErrInvalidPayload)
	assert.ErrorIs(t, UserPayload{Name: "Ada", Email: "ada@example.com"}.Validate(), ErrInvalidPayload)
}

func TestFlightPayloadValidate(t *testing.T) {
	valid := FlightPayload{
		CompanyName:       "Acme",
		DepartureLocation: "A",
		ArrivalLocation:   "B",
		DepartureDate:     "2024-01-01",
	}
	assert.NoError(t, valid.Validate())

	valid.CompanyName = ""
	err := valid.Validate()
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "company_name")
}

func TestNotFoundVariantsMatchNotFound(t *testing.T) {
	assert.True(t, errors.Is(ErrFlightNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrUserNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrFlightNotFound, ErrUserNotFound))
}

func TestFlightHasUser(t *testing.T) {
	f := Flight{Users: []User{{ID: "u-1"}, {ID: "u-2"}}}
	assert.True(t, f.HasUser("u-2"))
	assert.False(t, f.HasUser("u-3"))
}
