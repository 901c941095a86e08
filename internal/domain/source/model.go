package source

// Source is a configured RSS feed. A nil ClientID means the feed is global
// and its items are considered for every client; a bound client additionally
// enables the per-entry relevance filter during ingestion.
type Source struct {
	ID         int64
	Name       string
	URL        string
	Category   string
	ClientID   *int64
	ClientName string
	IsActive   bool
}
