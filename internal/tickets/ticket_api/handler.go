package ticket_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-bookings/internal/logger"
	"ms-bookings/internal/models"
	"ms-bookings/internal/tickets/pass"
	tickets "ms-bookings/internal/tickets/service"
	"ms-bookings/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Pass          *pass.Generator
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, passes *pass.Generator, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Pass: passes, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Post("/", h.CreateTicket)
		r.Post("/pass/verify", h.VerifyPass)
		r.Route("/{ticketID}", func(r chi.Router) {
			r.Get("/", h.ViewTicket)
			r.Put("/", h.UpdateTicket)
			r.Delete("/", h.DeleteTicket)
			r.Post("/buy", h.BuyTicket)
			r.Post("/reserve", h.BuyTicket)
			r.Post("/revoke", h.RevokeTicket)
			r.Get("/pass", h.TicketPass)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	if utils.StatusFor(err) == http.StatusInternalServerError {
		h.Logger.Error("TICKET_API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	utils.WriteError(w, message, err)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.GetAllTickets(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch tickets", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets retrieved", list)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var payload models.TicketPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	ticket, err := h.TicketService.AddTicket(r.Context(), payload)
	if err != nil {
		h.fail(w, r, "Failed to create ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket created", ticket)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, "Ticket not found", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket retrieved", ticket)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var payload models.TicketPayload
	if err := utils.DecodeBody(r, &payload); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	ticket, err := h.TicketService.UpdateTicket(r.Context(), chi.URLParam(r, "ticketID"), payload)
	if err != nil {
		h.fail(w, r, "Failed to update ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket updated", ticket)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.DeleteTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, "Failed to delete ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket deleted", ticket)
}

func (h *Handler) BuyTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.BuyTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, "Failed to buy ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket reserved", ticket)
}

func (h *Handler) RevokeTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.RevokeTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, "Failed to revoke ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket revoked", ticket)
}

// TicketPass serves the QR code of a reserved ticket as a PNG.
func (h *Handler) TicketPass(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, "Ticket not found", err)
		return
	}
	png, err := h.Pass.Render(*ticket)
	if err != nil {
		h.fail(w, r, "Failed to render ticket pass", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// VerifyPass checks a scanned pass against the current ticket record.
// Expected POST request body: {"pass": "<sealed token>"}
func (h *Handler) VerifyPass(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pass string `json:"pass"`
	}
	if err := utils.DecodeBody(r, &body); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}

	claims, err := h.Pass.Open(body.Pass)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid ticket pass", err.Error()))
		return
	}
	ticket, err := h.TicketService.GetTicket(r.Context(), claims.TicketID)
	if err != nil {
		h.fail(w, r, "Ticket not found", err)
		return
	}
	if !ticket.Reserved {
		h.fail(w, r, "Ticket pass is no longer valid", models.ErrNotReserved)
		return
	}
	if !claims.Matches(*ticket) {
		h.fail(w, r, "Ticket pass is no longer valid", models.ErrPassOutdated)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket pass valid", ticket)
}
