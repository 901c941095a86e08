package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovaradar/internal/domain/progress"
	"innovaradar/internal/domain/source"
	"innovaradar/internal/domain/trend"
)

type fakeSourceStore struct {
	sources []source.Source
	err     error
}

func (f *fakeSourceStore) FetchSources(ctx context.Context) ([]source.Source, error) {
	return f.sources, f.err
}

type fakeTrendSink struct {
	mu    sync.Mutex
	saved []trend.Trend
	err   error
}

func (f *fakeTrendSink) SaveTrends(ctx context.Context, trends []trend.Trend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, trends...)
	return nil
}

type scriptedJudge struct {
	response string
	err      error
}

func (s *scriptedJudge) Complete(ctx context.Context, system, user string) (string, error) {
	return s.response, s.err
}

// errorTransport fails every request, simulating unreachable feeds.
type errorTransport struct{}

func (errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("no route to host")
}

func rssWithItems(items ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel>`)
	for _, item := range items {
		b.WriteString(item)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func rssItemXML(title, link, description string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description>%s</description><pubDate>Mon, 02 Jun 2025 10:30:00 +0000</pubDate></item>`,
		title, link, description,
	)
}

func drainScan(t *testing.T, events <-chan progress.Event) []string {
	t.Helper()

	var logs []string
	var results int
	for ev := range events {
		switch ev.Kind {
		case progress.KindLog:
			logs = append(logs, ev.Message)
		case progress.KindResult:
			results++
		}
	}
	require.Equal(t, 1, results, "a scan ends with exactly one result event")
	return logs
}

func TestScannerRun_CollectsAndSaves(t *testing.T) {
	feed := rssWithItems(
		rssItemXML("New AI Chip", "https://example.com/chip", "Faster inference."),
		rssItemXML("Robots everywhere", "https://example.com/robots", "Warehouse robotics."),
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	sources := &fakeSourceStore{sources: []source.Source{
		{Name: "TechCrunch AI", URL: server.URL, IsActive: true},
	}}
	sink := &fakeTrendSink{}

	s := NewScannerWithClient(sources, sink, nil, nil, server.Client(), Config{FetchTimeout: time.Second})

	logs := drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 2)
	assert.Equal(t, "New AI Chip", sink.saved[0].Title)
	assert.Equal(t, "TechCrunch AI", sink.saved[0].Source)
	assert.Equal(t, "https://example.com/chip", sink.saved[0].URL)

	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "2 articles found in TechCrunch AI.")
	assert.Contains(t, joined, "2 trends saved.")
}

func TestScannerRun_CapsEntriesPerFeed(t *testing.T) {
	var items []string
	for i := 0; i < 9; i++ {
		items = append(items, rssItemXML(
			fmt.Sprintf("Story %d", i),
			fmt.Sprintf("https://example.com/%d", i),
			"body",
		))
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(items...))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{{Name: "Firehose", URL: server.URL, IsActive: true}}},
		sink, nil, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	assert.Len(t, sink.saved, maxEntriesPerFeed)
}

func TestScannerRun_TruncatesLongSummaries(t *testing.T) {
	long := strings.Repeat("a", summaryLimit+100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("Long read", "https://example.com/long", long)))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{{Name: "Blog", URL: server.URL, IsActive: true}}},
		sink, nil, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1)
	assert.Len(t, sink.saved[0].Summary, summaryLimit+len("..."))
	assert.True(t, strings.HasSuffix(sink.saved[0].Summary, "..."))
}

func TestScannerRun_TruncationIsRuneSafe(t *testing.T) {
	// 3-byte runes put the byte limit mid-character.
	long := strings.Repeat("日", summaryLimit)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("Long read", "https://example.com/long", long)))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{{Name: "Blog", URL: server.URL, IsActive: true}}},
		sink, nil, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1)
	assert.True(t, utf8.ValidString(sink.saved[0].Summary))
	assert.True(t, strings.HasSuffix(sink.saved[0].Summary, "..."))
	assert.LessOrEqual(t, len(sink.saved[0].Summary), summaryLimit+len("..."))
}

func TestScannerRun_SkipsInactiveSources(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, rssWithItems(rssItemXML("Story", "https://example.com/s", "body")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{{Name: "Paused", URL: server.URL, IsActive: false}}},
		sink, nil, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	assert.Zero(t, hits)
	assert.Empty(t, sink.saved)
}

func TestScannerRun_FeedFailureDoesNotAbortScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, rssWithItems(rssItemXML("Story", "https://example.com/s", "body")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{
			{Name: "Broken", URL: server.URL + "/broken", IsActive: true},
			{Name: "Healthy", URL: server.URL + "/ok", IsActive: true},
		}},
		sink, nil, nil, server.Client(), Config{},
	)

	logs := drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1)
	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "Error reading Broken")
	assert.Contains(t, joined, "1 articles found in Healthy.")
}

func TestScannerRun_FallsBackWhenSourceListUnreadable(t *testing.T) {
	sink := &fakeTrendSink{}
	s := NewScannerWithClient(
		&fakeSourceStore{err: errors.New("relation does not exist")},
		sink, nil, nil,
		&http.Client{Transport: errorTransport{}},
		Config{},
	)

	logs := drainScan(t, s.Run(context.Background()))

	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "using fallback feeds")
	for _, fallback := range fallbackFeeds {
		assert.Contains(t, joined, fallback.Name)
	}
	assert.Empty(t, sink.saved)
}

func TestScannerRun_RelevanceFilterDropsEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("Celebrity gossip", "https://example.com/gossip", "Nothing technical.")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	judge := &scriptedJudge{response: `{"relevant": false, "summary": ""}`}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{
			{Name: "Curated", URL: server.URL, ClientName: "Acme", IsActive: true},
		}},
		sink, judge, nil, server.Client(), Config{},
	)

	logs := drainScan(t, s.Run(context.Background()))

	assert.Empty(t, sink.saved)
	assert.Contains(t, strings.Join(logs, "\n"), "Dropped as irrelevant for Acme")
}

func TestScannerRun_RelevanceFilterRewritesSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("GPU launch", "https://example.com/gpu", "original description")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	judge := &scriptedJudge{response: `{"relevant": true, "summary": "Acme angle: cheaper training runs"}`}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{
			{Name: "Curated", URL: server.URL, ClientName: "Acme", IsActive: true},
		}},
		sink, judge, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1)
	assert.Equal(t, "Acme angle: cheaper training runs", sink.saved[0].Summary)
}

func TestScannerRun_RelevanceFilterFailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("GPU launch", "https://example.com/gpu", "original description")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	judge := &scriptedJudge{err: errors.New("model overloaded")}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{
			{Name: "Curated", URL: server.URL, ClientName: "Acme", IsActive: true},
		}},
		sink, judge, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1, "a broken classifier must not block ingestion")
	assert.Equal(t, "original description", sink.saved[0].Summary)
}

func TestScannerRun_UnboundSourceSkipsClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("GPU launch", "https://example.com/gpu", "original description")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{}
	judge := &scriptedJudge{response: `{"relevant": false, "summary": ""}`}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{
			{Name: "General", URL: server.URL, IsActive: true},
		}},
		sink, judge, nil, server.Client(), Config{},
	)

	drainScan(t, s.Run(context.Background()))

	require.Len(t, sink.saved, 1, "sources without a client binding bypass the classifier")
}

func TestScannerRun_SaveFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssWithItems(rssItemXML("Story", "https://example.com/s", "body")))
	}))
	defer server.Close()

	sink := &fakeTrendSink{err: errors.New("disk full")}
	s := NewScannerWithClient(
		&fakeSourceStore{sources: []source.Source{{Name: "Blog", URL: server.URL, IsActive: true}}},
		sink, nil, nil, server.Client(), Config{},
	)

	logs := drainScan(t, s.Run(context.Background()))

	assert.Contains(t, strings.Join(logs, "\n"), "Error saving trends")
}
