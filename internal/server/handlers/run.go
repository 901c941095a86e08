// internal/server/handlers/run.go

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"innovaradar/internal/domain/opportunity"
	"innovaradar/internal/domain/progress"
)

// MatchRunner drives the matching cycle and persists its candidates
type MatchRunner interface {
	Run(ctx context.Context, clientFilter string, trendLimit int) <-chan progress.Event
	SaveOpportunities(ctx context.Context, opps []opportunity.Opportunity) error
}

// IngestRunner drives one RSS ingestion scan
type IngestRunner interface {
	Run(ctx context.Context) <-chan progress.Event
}

// OrphanCleaner repairs opportunity integrity drift
type OrphanCleaner interface {
	CleanOrphans(ctx context.Context) (int, error)
}

// RunHandler exposes the long-running operations as blocking endpoints. The
// websocket endpoints stream the same runs live; these drain to completion
// and return everything at once.
type RunHandler struct {
	matcher MatchRunner
	scanner IngestRunner
	cleaner OrphanCleaner
}

// NewRunHandler creates a new run handler
func NewRunHandler(matcher MatchRunner, scanner IngestRunner, cleaner OrphanCleaner) *RunHandler {
	return &RunHandler{
		matcher: matcher,
		scanner: scanner,
		cleaner: cleaner,
	}
}

type matchRunResponse struct {
	Logs          []string                  `json:"logs"`
	Opportunities []opportunity.Opportunity `json:"opportunities"`
}

// RunMatch executes a full matching cycle, persists the accepted candidates,
// and returns the logs plus the result.
func (h *RunHandler) RunMatch(w http.ResponseWriter, r *http.Request) {
	clientFilter := r.URL.Query().Get("client")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, opps := drain(h.matcher.Run(r.Context(), clientFilter, limit))

	if len(opps) > 0 {
		if err := h.matcher.SaveOpportunities(r.Context(), opps); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to save opportunities", err)
			return
		}
	}

	respondWithJSON(w, http.StatusOK, matchRunResponse{
		Logs:          logs,
		Opportunities: opps,
	})
}

// RunIngest executes one RSS scan and returns its logs.
func (h *RunHandler) RunIngest(w http.ResponseWriter, r *http.Request) {
	logs, _ := drain(h.scanner.Run(r.Context()))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// RunCleanup triggers the orphan cleanup pass.
func (h *RunHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cleaner.CleanOrphans(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to clean orphans", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// drain consumes a progress stream to completion, separating log messages
// from the terminal result.
func drain(events <-chan progress.Event) ([]string, []opportunity.Opportunity) {
	logs := []string{}
	var opps []opportunity.Opportunity

	for ev := range events {
		switch ev.Kind {
		case progress.KindLog:
			logs = append(logs, ev.Message)
		case progress.KindResult:
			opps = ev.Opportunities
		}
	}

	return logs, opps
}
