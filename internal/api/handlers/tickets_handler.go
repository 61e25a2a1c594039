package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/supportai/tickethub/internal/api/response"
	"github.com/supportai/tickethub/internal/api/validation"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
)

// TicketsService defines the interface for ticket intake and queries.
type TicketsService interface {
	CreateTicket(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*models.TicketWithEnrichment, error)
	ListTickets(ctx context.Context, filters *models.ListTicketsFilters) (*models.ListTicketsResponse, error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
}

// TicketsHandler handles HTTP requests for support tickets
type TicketsHandler struct {
	service TicketsService
}

// NewTicketsHandler creates a new tickets handler
func NewTicketsHandler(service TicketsService) *TicketsHandler {
	return &TicketsHandler{service: service}
}

// Create handles POST /requests
// @Summary Submit a support ticket
// @Description Stores the ticket and queues it for enrichment. AI fields are not part of the response.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body CreateTicketRequest true "Ticket text, or subject and body"
// @Success 201 {object} Ticket
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /requests [post]
func (h *TicketsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTicketRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)

		return
	}

	ticket, err := h.service.CreateTicket(r.Context(), &req)
	if err != nil {
		response.RespondServiceError(w, r, "create_ticket", err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, ticket)
}

// Get handles GET /requests/{id}
// @Summary Get a ticket by ID
// @Description Returns the ticket with its most recent enrichment. AI fields are null until processed.
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID (UUID)"
// @Success 200 {object} TicketWithEnrichment
// @Failure 404 {object} ProblemDetails "Ticket not found"
// @Router /requests/{id} [get]
func (h *TicketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		// An id that cannot exist is reported the same as one that does not.
		response.RespondNotFound(w, "ticket not found")

		return
	}

	ticket, err := h.service.GetTicket(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, r, "get_ticket", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, ticket)
}

// List handles GET /requests
// @Summary List enriched tickets
// @Description Lists up to 50 tickets that have an enrichment result, optionally filtered by category.
// @Description The body is a bare JSON array of tickets, newest first.
// @Tags Tickets
// @Produce json
// @Param category query string false "Filter by category or queue"
// @Success 200 {array} Ticket
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /requests [get]
func (h *TicketsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters models.ListTicketsFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	result, err := h.service.ListTickets(r.Context(), &filters)
	if err != nil {
		response.RespondServiceError(w, r, "list_tickets", err)

		return
	}

	tickets := result.Data
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	response.RespondJSON(w, http.StatusOK, tickets)
}

const statsSinceHeader = "X-Stats-Since"

// Stats handles GET /stats
// @Summary Ticket counts per category
// @Description Counts tickets created in the trailing 7 days, bucketed by category. The body is a
// @Description bare JSON array of {category, count}; the window start is sent in X-Stats-Since.
// @Tags Tickets
// @Produce json
// @Success 200 {array} StatsBucket
// @Header 200 {string} X-Stats-Since "RFC 3339 start of the counting window"
// @Failure 500 {object} ProblemDetails
// @Router /stats [get]
func (h *TicketsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		response.RespondServiceError(w, r, "get_stats", err)

		return
	}

	buckets := stats.Data
	if buckets == nil {
		buckets = []models.StatsBucket{}
	}

	w.Header().Set(statsSinceHeader, stats.Since.UTC().Format(time.RFC3339))
	response.RespondJSON(w, http.StatusOK, buckets)
}

// respondDecodeError answers a failed body decode. Oversized bodies are left to the MaxBody
// middleware, which replaces whatever is written here with a 413.
func respondDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		response.RespondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "request body too large")
	case errors.Is(err, validation.ErrInvalidBody):
		response.RespondBadRequest(w, "Invalid request body")
	case errors.Is(err, huberrors.ErrValidation):
		validation.RespondValidationError(w, err)
	default:
		response.RespondBadRequest(w, err.Error())
	}
}
