package trend

import (
	"time"
)

// Trend represents a normalized news item ingested from an RSS feed.
// The URL is the deduplication key: re-ingesting the same URL replaces
// the stored row instead of creating a duplicate.
type Trend struct {
	ID          int64
	Title       string
	Source      string
	URL         string
	Summary     string
	PublishedAt time.Time
	Tags        []string
}
