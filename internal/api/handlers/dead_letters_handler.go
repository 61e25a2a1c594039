package handlers

import (
	"context"
	"net/http"

	"github.com/supportai/tickethub/internal/api/response"
	"github.com/supportai/tickethub/internal/api/validation"
	"github.com/supportai/tickethub/internal/models"
)

// DefaultDeadLettersLimit is the page size when the limit query parameter is absent.
const DefaultDeadLettersLimit = 50

// DeadLettersRepository lists recorded dead letters, newest first.
type DeadLettersRepository interface {
	List(ctx context.Context, limit int) ([]models.DeadLetter, error)
}

// DeadLettersHandler exposes dead letters for inspection. Nothing here reprocesses them.
type DeadLettersHandler struct {
	repo DeadLettersRepository
}

// NewDeadLettersHandler creates a new dead letters handler
func NewDeadLettersHandler(repo DeadLettersRepository) *DeadLettersHandler {
	return &DeadLettersHandler{repo: repo}
}

// List handles GET /dead-letters
// @Summary List dead-lettered enrichment jobs
// @Tags Dead Letters
// @Produce json
// @Param limit query int false "Number of results to return (max 200, default 50)"
// @Success 200 {object} ListDeadLettersResponse
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /dead-letters [get]
func (h *DeadLettersHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters models.ListDeadLettersFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	if filters.Limit == 0 {
		filters.Limit = DefaultDeadLettersLimit
	}

	letters, err := h.repo.List(r.Context(), filters.Limit)
	if err != nil {
		response.RespondServiceError(w, r, "list_dead_letters", err)

		return
	}

	if letters == nil {
		letters = []models.DeadLetter{}
	}

	response.RespondJSON(w, http.StatusOK, models.ListDeadLettersResponse{Data: letters, Limit: filters.Limit})
}
