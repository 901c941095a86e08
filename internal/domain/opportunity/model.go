package opportunity

import (
	"time"
)

// Opportunity is a scored pairing of one client and one trend, produced by
// the matching cycle when the judged score clears the inclusion threshold.
// ClientName is denormalized: it must reference a live client by name, which
// is checked on write and repaired by the maintenance pass if drift occurs.
type Opportunity struct {
	ID             int64
	ClientName     string
	TrendTitle     string
	TrendURL       string
	MatchScore     int
	Reasoning      []string
	GeneratedPitch string
	CreatedAt      time.Time
}
