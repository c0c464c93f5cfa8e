package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-bookings/internal/flights/db"
	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
)

var created = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()
	bunDB, err := kv.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, kv.CreateSchema(context.Background(), bunDB))
	return bunDB
}

func TestFlightWithoutUsersComesBackEmpty(t *testing.T) {
	ctx := context.Background()
	flightDB := db.NewFlightDB(kv.NewBunStore(setupTestDB(t), kv.Flights, kv.DefaultLimits))

	flight := models.Flight{
		ID:                "f-1",
		Owner:             "owner-1",
		CompanyName:       "Acme",
		DepartureLocation: "A",
		ArrivalLocation:   "B",
		DepartureDate:     "2024-01-01",
		CreatedAt:         created,
	}
	require.NoError(t, flightDB.SaveFlight(ctx, flight))

	got, err := flightDB.GetFlightByID(ctx, "f-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Users)
	assert.Empty(t, got.Users)
	assert.Equal(t, "Acme", got.CompanyName)

	list, err := flightDB.ListFlights(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Users)

	removed, err := flightDB.DeleteFlight(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, got, removed)

	missing, err := flightDB.GetFlightByID(ctx, "f-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsersAndFlightsShareBackendNotKeys(t *testing.T) {
	ctx := context.Background()
	bunDB := setupTestDB(t)
	userDB := db.NewUserDB(kv.NewBunStore(bunDB, kv.Users, kv.DefaultLimits))
	flightDB := db.NewFlightDB(kv.NewBunStore(bunDB, kv.Flights, kv.DefaultLimits))

	user := models.User{ID: "same", Name: "Ada", Email: "ada@example.com", Age: 36, CreatedAt: created}
	require.NoError(t, userDB.SaveUser(ctx, user))

	flight, err := flightDB.GetFlightByID(ctx, "same")
	require.NoError(t, err)
	assert.Nil(t, flight)

	got, err := userDB.GetUserByID(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, user, *got)

	users, err := userDB.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	removed, err := userDB.DeleteUser(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, user, *removed)
	removed, err = userDB.DeleteUser(ctx, "same")
	require.NoError(t, err)
	assert.Nil(t, removed)
}
