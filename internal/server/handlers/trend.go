// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/domain/trend"
)

const defaultTrendPageSize = 20

// TrendStore defines the storage operations the trend handler needs
type TrendStore interface {
	FetchTrends(ctx context.Context, limit int) ([]trend.Trend, error)
	DeleteTrend(ctx context.Context, id int64) error
}

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	store TrendStore
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(store TrendStore) *TrendHandler {
	return &TrendHandler{
		store: store,
	}
}

// GetTrends returns the most recent trends
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultTrendPageSize
	}

	trends, err := h.store.FetchTrends(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, trends)
}

// DeleteTrend removes a trend
func (h *TrendHandler) DeleteTrend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid trend ID", err)
		return
	}

	if err := h.store.DeleteTrend(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Trend not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete trend", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
