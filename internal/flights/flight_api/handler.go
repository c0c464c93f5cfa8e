package flight_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	flights "ms-bookings/internal/flights/service"
	"ms-bookings/internal/logger"
	"ms-bookings/internal/models"
	"ms-bookings/internal/utils"
)

type Handler struct {
	FlightService *flights.FlightService
	Logger        *logger.Logger
}

func NewHandler(flightService *flights.FlightService, log *logger.Logger) *Handler {
	return &Handler{FlightService: flightService, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Delete("/{userID}", h.DeleteUser)
	})
	r.Route("/flights", func(r chi.Router) {
		r.Get("/", h.ListFlights)
		r.Post("/", h.CreateFlight)
		r.Get("/{flightID}", h.GetFlight)
		r.Put("/{flightID}", h.UpdateFlight)
		r.Delete("/{flightID}", h.DeleteFlight)
		r.Post("/{flightID}/book/{userID}", h.BookFlight)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	if utils.StatusFor(err) == http.StatusInternalServerError {
		h.Logger.Error("FLIGHT_API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	utils.WriteError(w, message, err)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.FlightService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch users", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Users retrieved", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload models.UserPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	user, err := h.FlightService.CreateUser(r.Context(), payload)
	if err != nil {
		h.fail(w, r, "Failed to create user", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "User created", user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.FlightService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "User not found", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "User retrieved", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload models.UserPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	user, err := h.FlightService.UpdateUser(r.Context(), chi.URLParam(r, "userID"), payload)
	if err != nil {
		h.fail(w, r, "Failed to update user", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "User updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.FlightService.DeleteUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "Failed to delete user", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "User deleted", user)
}

func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	list, err := h.FlightService.ListFlights(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch flights", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Flights retrieved", list)
}

func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var payload models.FlightPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	flight, err := h.FlightService.CreateFlight(r.Context(), payload)
	if err != nil {
		h.fail(w, r, "Failed to create flight", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Flight created", flight)
}

func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.FlightService.GetFlight(r.Context(), chi.URLParam(r, "flightID"))
	if err != nil {
		h.fail(w, r, "Flight not found", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Flight retrieved", flight)
}

func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	var payload models.FlightPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	flight, err := h.FlightService.UpdateFlight(r.Context(), chi.URLParam(r, "flightID"), payload)
	if err != nil {
		h.fail(w, r, "Failed to update flight", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Flight updated", flight)
}

func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.FlightService.DeleteFlight(r.Context(), chi.URLParam(r, "flightID"))
	if err != nil {
		h.fail(w, r, "Failed to delete flight", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Flight deleted", flight)
}

func (h *Handler) BookFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.FlightService.BookFlight(r.Context(), chi.URLParam(r, "flightID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "Failed to book flight", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Flight booked", flight)
}
