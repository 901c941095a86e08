// internal/service/ingest/scanner.go

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/nats-io/nats.go"

	"innovaradar/internal/domain/progress"
	"innovaradar/internal/domain/source"
	"innovaradar/internal/domain/trend"
	"innovaradar/internal/llm"
)

const (
	maxEntriesPerFeed = 5
	summaryLimit      = 500
	maxFeedBody       = 4 << 20

	// Several feeds reject default Go clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// fallbackFeeds are scanned when the source list cannot be read.
var fallbackFeeds = []source.Source{
	{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/", IsActive: true},
	{Name: "MIT Tech Review", URL: "https://www.technologyreview.com/feed/", IsActive: true},
}

// SourceStore provides the configured RSS sources
type SourceStore interface {
	FetchSources(ctx context.Context) ([]source.Source, error)
}

// TrendStore persists ingested trends
type TrendStore interface {
	SaveTrends(ctx context.Context, trends []trend.Trend) error
}

// Config contains configuration for the ingestion scanner
type Config struct {
	FetchTimeout time.Duration
	EventsTopic  string
}

// Scanner fetches every active RSS source, normalizes the most recent
// entries, optionally filters them through the LLM relevance classifier,
// and persists the batch.
type Scanner struct {
	sources    SourceStore
	trends     TrendStore
	judge      llm.Judge
	eventBus   *nats.Conn
	httpClient *http.Client
	config     Config
}

// NewScanner creates a new ingestion scanner. The judge and event bus may be
// nil; the relevance filter and event publishing are then disabled.
func NewScanner(
	sources SourceStore,
	trends TrendStore,
	judge llm.Judge,
	eventBus *nats.Conn,
	config Config,
) *Scanner {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 10 * time.Second
	}

	return &Scanner{
		sources:    sources,
		trends:     trends,
		judge:      judge,
		eventBus:   eventBus,
		httpClient: &http.Client{Timeout: config.FetchTimeout},
		config:     config,
	}
}

// NewScannerWithClient creates a scanner with a custom HTTP client (for testing).
func NewScannerWithClient(
	sources SourceStore,
	trends TrendStore,
	judge llm.Judge,
	eventBus *nats.Conn,
	httpClient *http.Client,
	config Config,
) *Scanner {
	s := NewScanner(sources, trends, judge, eventBus, config)
	s.httpClient = httpClient
	return s
}

// Run executes one ingestion scan and returns the progress-event stream.
// Single-feed failures are logged and skipped; the scan itself only stops
// when ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) <-chan progress.Event {
	events := make(chan progress.Event)

	go func() {
		defer close(events)
		s.run(ctx, events)
	}()

	return events
}

func (s *Scanner) run(ctx context.Context, events chan<- progress.Event) {
	if !s.emit(ctx, events, progress.Logf("Starting RSS source scan...")) {
		return
	}

	sources := s.loadSources(ctx, events)

	var collected []trend.Trend

	for _, src := range sources {
		if !src.IsActive {
			continue
		}

		if !s.emit(ctx, events, progress.Logf("Connecting to %s...", src.Name)) {
			return
		}

		entries, err := s.fetchFeed(ctx, src.URL)
		if err != nil {
			if !s.emit(ctx, events, progress.Logf("Error reading %s: %v", src.Name, err)) {
				return
			}
			continue
		}

		if len(entries) == 0 {
			if !s.emit(ctx, events, progress.Logf("No entries found in %s.", src.Name)) {
				return
			}
			continue
		}

		if !s.emit(ctx, events, progress.Logf("%d articles found in %s.", len(entries), src.Name)) {
			return
		}

		if len(entries) > maxEntriesPerFeed {
			entries = entries[:maxEntriesPerFeed]
		}

		for _, entry := range entries {
			t, keep := s.normalizeEntry(ctx, src, entry)
			if !keep {
				if !s.emit(ctx, events, progress.Logf("Dropped as irrelevant for %s: %s", src.ClientName, entry.Title)) {
					return
				}
				continue
			}
			collected = append(collected, t)
		}
	}

	if !s.emit(ctx, events, progress.Logf("Total trends collected: %d", len(collected))) {
		return
	}

	if len(collected) > 0 {
		if err := s.trends.SaveTrends(ctx, collected); err != nil {
			if !s.emit(ctx, events, progress.Logf("Error saving trends: %v", err)) {
				return
			}
		} else {
			if !s.emit(ctx, events, progress.Logf("%d trends saved.", len(collected))) {
				return
			}
			s.publishIngestEvent(len(collected))
		}
	}

	s.emit(ctx, events, progress.Result(nil))
}

// loadSources reads the configured sources, falling back to the hardcoded
// feeds if the source list cannot be read.
func (s *Scanner) loadSources(ctx context.Context, events chan<- progress.Event) []source.Source {
	sources, err := s.sources.FetchSources(ctx)
	if err != nil {
		s.emit(ctx, events, progress.Logf("Error reading sources, using fallback feeds: %v", err))
		return fallbackFeeds
	}

	s.emit(ctx, events, progress.Logf("Sources retrieved: %d", len(sources)))
	return sources
}

func (s *Scanner) fetchFeed(ctx context.Context, url string) ([]feedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("error reading feed body: %w", err)
	}

	return parseFeed(body)
}

// normalizeEntry converts one feed entry into a trend. When the source is
// bound to a client and a judge is available, the entry passes through the
// relevance classifier first; classifier failures admit the entry so a
// broken model never blocks ingestion.
func (s *Scanner) normalizeEntry(ctx context.Context, src source.Source, entry feedEntry) (trend.Trend, bool) {
	summary := entry.Summary

	if src.ClientName != "" && s.judge != nil {
		relevance, err := llm.ClassifyRelevance(ctx, s.judge, src.ClientName, entry.Title, summary)
		if err != nil {
			log.Printf("Relevance check failed for %q, keeping entry: %v", entry.Title, err)
		} else if !relevance.Relevant {
			return trend.Trend{}, false
		} else if relevance.Summary != "" {
			summary = relevance.Summary
		}
	}

	if len(summary) > summaryLimit {
		// Cut at a rune boundary so a multibyte character on the limit
		// cannot leave invalid UTF-8 in the stored summary.
		cut := summaryLimit
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}

	return trend.Trend{
		Title:       entry.Title,
		Source:      src.Name,
		URL:         entry.Link,
		Summary:     summary,
		PublishedAt: entry.Published,
		Tags:        entry.Tags,
	}, true
}

func (s *Scanner) publishIngestEvent(count int) {
	if s.eventBus == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{"count": count})
	if err != nil {
		log.Printf("Error marshaling ingest event: %v", err)
		return
	}

	topic := fmt.Sprintf("%s.ingested", s.config.EventsTopic)
	if err := s.eventBus.Publish(topic, data); err != nil {
		log.Printf("Error publishing ingest event: %v", err)
	}
}

func (s *Scanner) emit(ctx context.Context, events chan<- progress.Event, ev progress.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
