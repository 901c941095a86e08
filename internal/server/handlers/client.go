// internal/server/handlers/client.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/domain/client"
	"innovaradar/internal/service/enrich"
)

// ClientStore defines the storage operations the client handler needs
type ClientStore interface {
	FetchClients(ctx context.Context) ([]client.Client, error)
	UpsertClient(ctx context.Context, c client.Client) (client.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

// Enricher builds client profiles from web search or model knowledge
type Enricher interface {
	Enrich(ctx context.Context, name string) (client.Profile, error)
	SummarizeStack(ctx context.Context, name string) (string, error)
}

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	store    ClientStore
	enricher Enricher
}

// NewClientHandler creates a new client handler
func NewClientHandler(store ClientStore, enricher Enricher) *ClientHandler {
	return &ClientHandler{
		store:    store,
		enricher: enricher,
	}
}

// GetClients returns all clients
func (h *ClientHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.FetchClients(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get clients", err)
		return
	}

	respondWithJSON(w, http.StatusOK, clients)
}

type upsertClientRequest struct {
	// An id field may arrive from external callers (e.g. enrichment previews);
	// it is deliberately ignored, the store assigns identity by name.
	ID             json.RawMessage `json:"id"`
	Name           string          `json:"name"`
	Industry       string          `json:"industry"`
	TechContextRaw string          `json:"tech_context_raw"`
}

// UpsertClient creates or updates a client keyed on its name
func (h *ClientHandler) UpsertClient(w http.ResponseWriter, r *http.Request) {
	var req upsertClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing client name", nil)
		return
	}

	saved, err := h.store.UpsertClient(r.Context(), client.Client{
		Name:           req.Name,
		Industry:       req.Industry,
		TechContextRaw: req.TechContextRaw,
		LastUpdated:    time.Now(),
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// DeleteClient removes a client
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID", err)
		return
	}

	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Client not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete client", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type enrichRequest struct {
	Name string `json:"name"`
}

// EnrichClient investigates a company on the web and saves the resulting
// profile as a client. The generated profile id is never persisted.
func (h *ClientHandler) EnrichClient(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing client name", err)
		return
	}

	profile, err := h.enricher.Enrich(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, enrich.ErrNoFootprint) {
			respondWithError(w, http.StatusNotFound, "No digital footprint found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to enrich client", err)
		}
		return
	}

	saved, err := h.store.UpsertClient(r.Context(), client.Client{
		Name:           profile.Name,
		Industry:       profile.Industry,
		TechContextRaw: profile.TechContextRaw,
		LastUpdated:    profile.LastUpdated,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save enriched client", err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// SummarizeClient returns a model-knowledge technology profile for a company
// without persisting anything; the edit screen decides whether to keep it.
func (h *ClientHandler) SummarizeClient(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing client name", err)
		return
	}

	summary, err := h.enricher.SummarizeStack(r.Context(), req.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to summarize client stack", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"name":             req.Name,
		"tech_context_raw": summary,
	})
}
