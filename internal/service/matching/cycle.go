// internal/service/matching/cycle.go

package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/nats-io/nats.go"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/domain/client"
	"innovaradar/internal/domain/opportunity"
	"innovaradar/internal/domain/progress"
	"innovaradar/internal/domain/trend"
	"innovaradar/internal/llm"
)

// FilterAll is the client filter sentinel meaning "match every client".
const FilterAll = "all"

const (
	// Candidates need a score strictly above this to be recorded. The bar is
	// intentionally low: even marginal matches stay visible downstream, and
	// filtering to an "interesting" threshold belongs to the consumer.
	matchThreshold = 10

	// Pause after each accepted match to stay under the upstream
	// requests-per-minute quota.
	matchPause = 5 * time.Second

	defaultTrendLimit = 5
	maxTrendLimit     = 20
)

// ClientStore provides the client snapshot for a run
type ClientStore interface {
	FetchClients(ctx context.Context) ([]client.Client, error)
}

// TrendStore provides the most recent trends for a run
type TrendStore interface {
	FetchTrends(ctx context.Context, limit int) ([]trend.Trend, error)
}

// OpportunityStore persists accepted candidates
type OpportunityStore interface {
	SaveOpportunity(ctx context.Context, o opportunity.Opportunity) error
}

// Config contains configuration for the matching cycle
type Config struct {
	TrendLimit  int
	EventsTopic string
}

// Cycle pairs every client against the recent trends, judges each pair with
// the LLM, and streams progress to the caller.
type Cycle struct {
	clients  ClientStore
	trends   TrendStore
	opps     OpportunityStore
	judge    llm.Judge
	eventBus *nats.Conn
	config   Config
	pause    time.Duration
}

// NewCycle creates a new matching cycle. The judge may be nil when no
// credential is configured; runs then fail closed. The event bus may be nil
// to disable publishing.
func NewCycle(
	clients ClientStore,
	trends TrendStore,
	opps OpportunityStore,
	judge llm.Judge,
	eventBus *nats.Conn,
	config Config,
) *Cycle {
	if config.TrendLimit < 1 || config.TrendLimit > maxTrendLimit {
		config.TrendLimit = defaultTrendLimit
	}

	return &Cycle{
		clients:  clients,
		trends:   trends,
		opps:     opps,
		judge:    judge,
		eventBus: eventBus,
		config:   config,
		pause:    matchPause,
	}
}

// Run executes one matching cycle and returns the progress-event stream.
// The stream carries zero or more log events followed by exactly one result
// event, after which the channel is closed. Sends are unbuffered: the
// producer blocks until the consumer takes each event, so an abandoned
// consumer stops the run at the next event boundary. Cancelling ctx stops
// the run immediately, including during the post-match pause; a cancelled
// run closes the channel without a result event.
func (c *Cycle) Run(ctx context.Context, clientFilter string, trendLimit int) <-chan progress.Event {
	events := make(chan progress.Event)

	go func() {
		defer close(events)
		c.run(ctx, clientFilter, trendLimit, events)
	}()

	return events
}

func (c *Cycle) run(ctx context.Context, clientFilter string, trendLimit int, events chan<- progress.Event) {
	if trendLimit < 1 || trendLimit > maxTrendLimit {
		trendLimit = c.config.TrendLimit
	}

	if !c.emit(ctx, events, progress.Logf("Starting cognitive analysis...")) {
		return
	}

	if c.judge == nil {
		if !c.emit(ctx, events, progress.Logf("Stopping: LLM API key is not configured.")) {
			return
		}
		c.emit(ctx, events, progress.Result(nil))
		return
	}

	clients, trends := c.loadData(ctx, trendLimit, events)

	if clientFilter != "" && clientFilter != FilterAll {
		filtered := clients[:0:0]
		for _, cl := range clients {
			if cl.Name == clientFilter {
				filtered = append(filtered, cl)
			}
		}
		if len(filtered) == 0 {
			if !c.emit(ctx, events, progress.Logf("Warning: no client named %q found, nothing to analyze.", clientFilter)) {
				return
			}
		}
		clients = filtered
	}

	var opportunities []opportunity.Opportunity

	for _, cl := range clients {
		if !c.emit(ctx, events, progress.Logf("Analyzing portfolio of %s...", cl.Name)) {
			return
		}

		for _, t := range trends {
			if !c.emit(ctx, events, progress.Logf("Crossing with: %s", truncate(t.Title, 40))) {
				return
			}

			judgment := llm.JudgeMatch(ctx, c.judge, cl, t)

			if !c.emit(ctx, events, progress.Logf("Score: %d", judgment.MatchScore)) {
				return
			}

			if judgment.MatchScore <= matchThreshold {
				continue
			}

			if !c.emit(ctx, events, progress.Logf("MATCH DETECTED: %s", t.Title)) {
				return
			}

			opportunities = append(opportunities, opportunity.Opportunity{
				ClientName:     cl.Name,
				TrendTitle:     t.Title,
				TrendURL:       t.URL,
				MatchScore:     judgment.MatchScore,
				Reasoning:      judgment.Reasoning,
				GeneratedPitch: judgment.GeneratedPitch,
				CreatedAt:      time.Now(),
			})

			if !c.emit(ctx, events, progress.Logf("Waiting %s for API quota...", c.pause)) {
				return
			}
			if !c.sleep(ctx) {
				return
			}
		}
	}

	c.emit(ctx, events, progress.Result(opportunities))
}

// loadData fetches the snapshot for a run. Fetch failures are reported as
// log events and degrade to empty sets; they never abort the run.
func (c *Cycle) loadData(ctx context.Context, trendLimit int, events chan<- progress.Event) ([]client.Client, []trend.Trend) {
	clients, err := c.clients.FetchClients(ctx)
	if err != nil {
		c.emit(ctx, events, progress.Logf("Error loading clients: %v", err))
		clients = nil
	}

	trends, err := c.trends.FetchTrends(ctx, trendLimit)
	if err != nil {
		c.emit(ctx, events, progress.Logf("Error loading trends: %v", err))
		trends = nil
	}

	c.emit(ctx, events, progress.Logf("Loaded %d clients and %d trends.", len(clients), len(trends)))

	return clients, trends
}

// SaveOpportunities persists the candidates of a finished run and publishes
// a detected event per saved row. A candidate whose client disappeared since
// the scan is skipped with a log, not treated as a failure.
func (c *Cycle) SaveOpportunities(ctx context.Context, opps []opportunity.Opportunity) error {
	for _, o := range opps {
		if err := c.opps.SaveOpportunity(ctx, o); err != nil {
			if errors.Is(err, storage.ErrUnknownClient) {
				log.Printf("Skipping opportunity for missing client %q", o.ClientName)
				continue
			}
			return fmt.Errorf("error saving opportunity for %s: %w", o.ClientName, err)
		}

		c.publishOpportunityEvent(o)
	}

	return nil
}

func (c *Cycle) publishOpportunityEvent(o opportunity.Opportunity) {
	if c.eventBus == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"client_name": o.ClientName,
		"trend_title": o.TrendTitle,
		"match_score": o.MatchScore,
	})
	if err != nil {
		log.Printf("Error marshaling opportunity event: %v", err)
		return
	}

	topic := fmt.Sprintf("%s.detected", c.config.EventsTopic)
	if err := c.eventBus.Publish(topic, data); err != nil {
		log.Printf("Error publishing opportunity event: %v", err)
	}
}

// emit delivers one event, returning false if the run was cancelled before
// the consumer took it.
func (c *Cycle) emit(ctx context.Context, events chan<- progress.Event, ev progress.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep blocks for the quota pause, returning false if ctx was cancelled.
func (c *Cycle) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.pause)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
