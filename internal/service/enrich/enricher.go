// internal/service/enrich/enricher.go

package enrich

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"innovaradar/internal/domain/client"
	"innovaradar/internal/llm"
)

// ErrNoFootprint is returned when the web search yields no usable text for
// the client.
var ErrNoFootprint = errors.New("no digital footprint found")

const (
	searchEndpoint = "https://html.duckduckgo.com/html/"
	perSourceLimit = 2000

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var resultLinkPattern = regexp.MustCompile(`<a[^>]+class="result__a"[^>]+href="([^"]+)"`)

// Config contains configuration for the enricher
type Config struct {
	MaxResults   int
	FetchTimeout time.Duration
}

// Enricher builds a free-text tech context blob for a client by searching
// the web and extracting readable text from the top results.
type Enricher struct {
	judge      llm.Judge
	httpClient *http.Client
	config     Config
}

// NewEnricher creates a new enricher. The judge may be nil; the model-based
// stack summary is then unavailable.
func NewEnricher(judge llm.Judge, config Config) *Enricher {
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 15 * time.Second
	}

	return &Enricher{
		judge:      judge,
		httpClient: &http.Client{Timeout: config.FetchTimeout},
		config:     config,
	}
}

// NewEnricherWithClient creates an enricher with a custom HTTP client (for testing).
func NewEnricherWithClient(judge llm.Judge, httpClient *http.Client, config Config) *Enricher {
	e := NewEnricher(judge, config)
	e.httpClient = httpClient
	return e
}

// Enrich searches for the client's digital footprint and returns a profile
// carrying the concatenated extracted text. Returns ErrNoFootprint when no
// source produced any text.
func (e *Enricher) Enrich(ctx context.Context, name string) (client.Profile, error) {
	urls, err := e.search(ctx, name)
	if err != nil {
		return client.Profile{}, fmt.Errorf("error searching for %q: %w", name, err)
	}

	var sb strings.Builder
	for _, u := range urls {
		text, err := e.extract(ctx, u)
		if err != nil {
			log.Printf("Error extracting %s: %v", u, err)
			continue
		}
		if text == "" {
			continue
		}

		if len(text) > perSourceLimit {
			text = text[:perSourceLimit]
		}
		fmt.Fprintf(&sb, "\n--- SOURCE: %s ---\n%s\n", u, text)
	}

	if sb.Len() == 0 {
		return client.Profile{}, ErrNoFootprint
	}

	return client.Profile{
		ID:             fmt.Sprintf("cli_%s", uuid.New().String()),
		Name:           name,
		Industry:       "Unknown",
		TechContextRaw: sb.String(),
		LastUpdated:    time.Now(),
	}, nil
}

// SummarizeStack asks the model for a likely technology-stack profile from
// general knowledge. Used when the web search finds nothing worth keeping.
func (e *Enricher) SummarizeStack(ctx context.Context, name string) (string, error) {
	if e.judge == nil {
		return "", fmt.Errorf("LLM API key is not configured")
	}
	return llm.SummarizeStack(ctx, e.judge, name)
}

// search queries DuckDuckGo's HTML endpoint for the client's footprint and
// returns up to MaxResults result URLs.
func (e *Enricher) search(ctx context.Context, name string) ([]string, error) {
	query := fmt.Sprintf("%q digital transformation innovation technology case studies launches", name)

	searchURL := fmt.Sprintf("%s?q=%s", searchEndpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("error reading search response: %w", err)
	}

	return extractResultLinks(string(body), e.config.MaxResults), nil
}

// extractResultLinks pulls result URLs out of the DuckDuckGo HTML response.
// Result anchors carry a redirect URL whose uddg parameter holds the real
// destination.
func extractResultLinks(body string, max int) []string {
	matches := resultLinkPattern.FindAllStringSubmatch(body, -1)

	seen := make(map[string]bool)
	var links []string

	for _, m := range matches {
		href := html.UnescapeString(m[1])

		if parsed, err := url.Parse(href); err == nil {
			if target := parsed.Query().Get("uddg"); target != "" {
				href = target
			}
		}

		if !strings.HasPrefix(href, "http") || seen[href] {
			continue
		}
		seen[href] = true

		links = append(links, href)
		if len(links) >= max {
			break
		}
	}

	return links
}

func (e *Enricher) extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("error extracting content: %w", err)
	}

	return strings.TrimSpace(article.TextContent), nil
}
