// internal/server/handlers/opportunity.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/domain/opportunity"
)

// OpportunityStore defines the storage operations the opportunity handler needs
type OpportunityStore interface {
	FetchOpportunities(ctx context.Context) ([]opportunity.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id int64) error
}

// OpportunityHandler handles opportunity HTTP requests
type OpportunityHandler struct {
	store OpportunityStore
}

// NewOpportunityHandler creates a new opportunity handler
func NewOpportunityHandler(store OpportunityStore) *OpportunityHandler {
	return &OpportunityHandler{
		store: store,
	}
}

// GetOpportunities returns all opportunities, most recent first
func (h *OpportunityHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.store.FetchOpportunities(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get opportunities", err)
		return
	}

	respondWithJSON(w, http.StatusOK, opps)
}

// DeleteOpportunity dismisses an opportunity
func (h *OpportunityHandler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID", err)
		return
	}

	if err := h.store.DeleteOpportunity(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Opportunity not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete opportunity", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
