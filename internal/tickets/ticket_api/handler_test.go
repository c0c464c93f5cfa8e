package ticket_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bookings/internal/idgen"
	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
	"ms-bookings/internal/tickets/db"
	"ms-bookings/internal/tickets/pass"
	tickets "ms-bookings/internal/tickets/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T) (http.Handler, *pass.Generator) {
	t.Helper()
	bunDB, err := kv.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, kv.CreateSchema(context.Background(), bunDB))

	svc := tickets.NewTicketService(db.New(kv.NewBunStore(bunDB, kv.Tickets, kv.DefaultLimits)), nil, nil, nil)
	svc.IDs = idgen.NewSequence("ticket")
	passes, err := pass.NewGenerator("test-secret")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api", NewHandler(svc, passes, nil).RegisterRoutes)
	return r, passes
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeTicket(t *testing.T, env envelope) models.Ticket {
	t.Helper()
	var ticket models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	return ticket
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	r, _ := setupRouter(t)

	rec, env := do(t, r, http.MethodPost, "/api/tickets", `{"movie":"Dune","seat":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	created := decodeTicket(t, env)
	assert.Equal(t, "ticket-1", created.ID)
	assert.Equal(t, uint64(5), created.Placement)

	rec, env = do(t, r, http.MethodPost, "/api/tickets/ticket-1/buy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeTicket(t, env).Reserved)

	rec, env = do(t, r, http.MethodPost, "/api/tickets/ticket-1/reserve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "this ticket is already reserved", env.Error)

	rec, env = do(t, r, http.MethodPost, "/api/tickets/ticket-1/revoke", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeTicket(t, env).Reserved)

	rec, _ = do(t, r, http.MethodPost, "/api/tickets/ticket-1/revoke", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = do(t, r, http.MethodPut, "/api/tickets/ticket-1", `{"movie":"Arrival","seat":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Arrival", decodeTicket(t, env).Movie)

	rec, env = do(t, r, http.MethodGet, "/api/tickets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = do(t, r, http.MethodDelete, "/api/tickets/ticket-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, r, http.MethodGet, "/api/tickets/ticket-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ticket with id=ticket-1 not found", env.Error)
}

func TestCreateTicketValidation(t *testing.T) {
	r, _ := setupRouter(t)

	rec, _ := do(t, r, http.MethodPost, "/api/tickets", `{"movie":"","seat":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/api/tickets", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPut, "/api/tickets/ghost", `{"movie":"","seat":0}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketPassFlow(t *testing.T) {
	r, passes := setupRouter(t)
	do(t, r, http.MethodPost, "/api/tickets", `{"movie":"Dune","seat":5}`)

	rec, _ := do(t, r, http.MethodGet, "/api/tickets/ticket-1/pass", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	do(t, r, http.MethodPost, "/api/tickets/ticket-1/buy", "")
	rec, _ = do(t, r, http.MethodGet, "/api/tickets/ticket-1/pass", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	token, err := passes.Seal(models.Ticket{ID: "ticket-1", Movie: "Dune", Placement: 5, Reserved: true})
	require.NoError(t, err)
	body := `{"pass":"` + token + `"}`

	rec, env := do(t, r, http.MethodPost, "/api/tickets/pass/verify", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ticket-1", decodeTicket(t, env).ID)

	rec, _ = do(t, r, http.MethodPut, "/api/tickets/ticket-1", `{"movie":"Dune","seat":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = do(t, r, http.MethodPost, "/api/tickets/pass/verify", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.ErrPassOutdated.Error(), env.Error)

	do(t, r, http.MethodPut, "/api/tickets/ticket-1", `{"movie":"Dune","seat":5}`)
	do(t, r, http.MethodPost, "/api/tickets/ticket-1/revoke", "")
	rec, env = do(t, r, http.MethodPost, "/api/tickets/pass/verify", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.ErrNotReserved.Error(), env.Error)

	rec, _ = do(t, r, http.MethodPost, "/api/tickets/pass/verify", `{"pass":"garbage"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
