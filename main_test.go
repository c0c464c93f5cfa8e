package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bookings/internal/auth"
	"ms-bookings/internal/config"
	flight_db "ms-bookings/internal/flights/db"
	"ms-bookings/internal/flights/flight_api"
	flights "ms-bookings/internal/flights/service"
	"ms-bookings/internal/lock"
	"ms-bookings/internal/logger"
	"ms-bookings/internal/sse"
	ticket_db "ms-bookings/internal/tickets/db"
	"ms-bookings/internal/tickets/pass"
	tickets "ms-bookings/internal/tickets/service"
	"ms-bookings/internal/tickets/ticket_api"
)

func setupApp(t *testing.T, required bool) (http.Handler, *stores) {
	t.Helper()
	log := logger.New(io.Discard)
	cfg := &config.Config{Store: config.StoreConfig{
		Driver:       "sqlite",
		SQLiteDSN:    ":memory:",
		MaxKeySize:   64,
		MaxValueSize: 64 << 10,
	}}
	st, err := openStores(context.Background(), cfg, nil, log)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	locker := lock.NewLocal()
	passes, err := pass.NewGenerator("test")
	require.NoError(t, err)

	return buildRouter(app{
		tickets:  ticket_api.NewHandler(tickets.NewTicketService(ticket_db.New(st.tickets), locker, nil, log), passes, log),
		flights:  flight_api.NewHandler(flights.NewFlightService(flight_db.NewFlightDB(st.flights), flight_db.NewUserDB(st.users), locker, nil, log), log),
		stream:   sse.NewHandler(sse.NewEmitter(), log),
		verifier: auth.NewHMACVerifier("secret"),
		required: required,
		ping:     st.ping,
		logger:   log,
	}), st
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthz(t *testing.T) {
	router, _ := setupApp(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := buildRouter(app{
		verifier: auth.UnverifiedVerifier{},
		ping:     func(context.Context) error { return errors.New("down") },
	})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	router, _ := setupApp(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/flights",
		strings.NewReader(`{"company_name":"Acme","departure_location":"A","arrival_location":"B","departure_date":"2024-01-01"}`))
	req.Header.Set("Authorization", bearer(t, "pilot-1"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner":"pilot-1"`)
}

func TestOpenStoresRejectsUnknownDriver(t *testing.T) {
	_, err := openStores(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "etcd"}}, nil, nil)
	assert.Error(t, err)

	_, err = openStores(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "redis"}}, nil, nil)
	assert.Error(t, err)
}

func TestNewLockerFallsBackToLocal(t *testing.T) {
	cfg := &config.Config{Lock: config.LockConfig{Driver: "redis"}}
	_, ok := newLocker(cfg, nil, nil).(*lock.Local)
	assert.True(t, ok)
}
