package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
	"ms-bookings/internal/tickets/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	bunDB, err := kv.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, kv.CreateSchema(context.Background(), bunDB))

	return db.New(kv.NewBunStore(bunDB, kv.Tickets, kv.DefaultLimits))
}

func TestSaveAndGetTicket(t *testing.T) {
	ctx := context.Background()
	ticketDB := setupTestDB(t)

	ticket := models.Ticket{
		ID:        "t-1",
		Movie:     "Dune",
		Placement: 5,
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ticketDB.SaveTicket(ctx, ticket))

	got, err := ticketDB.GetTicketByID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ticket, *got)
	assert.Nil(t, got.UpdatedAt)
}

func TestGetMissingTicketReturnsNil(t *testing.T) {
	got, err := setupTestDB(t).GetTicketByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAndDeleteTickets(t *testing.T) {
	ctx := context.Background()
	ticketDB := setupTestDB(t)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, ticketDB.SaveTicket(ctx, models.Ticket{ID: id, Movie: "Alien", Placement: 1}))
	}

	list, err := ticketDB.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[2].ID)

	removed, err := ticketDB.DeleteTicket(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "b", removed.ID)

	removed, err = ticketDB.DeleteTicket(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, removed)

	list, err = ticketDB.ListTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
