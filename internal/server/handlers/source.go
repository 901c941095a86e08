// internal/server/handlers/source.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/domain/source"
)

// SourceStore defines the storage operations the source handler needs
type SourceStore interface {
	FetchSources(ctx context.Context) ([]source.Source, error)
	AddSource(ctx context.Context, src source.Source) (source.Source, error)
	DeleteSource(ctx context.Context, id int64) error
	UpdateSourceStatus(ctx context.Context, id int64, active bool) error
}

// SourceHandler handles RSS source HTTP requests
type SourceHandler struct {
	store SourceStore
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(store SourceStore) *SourceHandler {
	return &SourceHandler{
		store: store,
	}
}

// GetSources returns all configured sources
func (h *SourceHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.FetchSources(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get sources", err)
		return
	}

	respondWithJSON(w, http.StatusOK, sources)
}

type addSourceRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	ClientID *int64 `json:"client_id"`
}

// AddSource creates a new RSS source
func (h *SourceHandler) AddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name == "" || req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "Missing source name or URL", nil)
		return
	}

	saved, err := h.store.AddSource(r.Context(), source.Source{
		Name:     req.Name,
		URL:      req.URL,
		Category: req.Category,
		ClientID: req.ClientID,
		IsActive: true,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add source", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, saved)
}

// DeleteSource removes a source
func (h *SourceHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid source ID", err)
		return
	}

	if err := h.store.DeleteSource(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Source not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete source", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type sourceStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// UpdateSourceStatus toggles a source active or inactive
func (h *SourceHandler) UpdateSourceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid source ID", err)
		return
	}

	var req sourceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.store.UpdateSourceStatus(r.Context(), id, req.IsActive); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Source not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update source", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
