package progress

import (
	"fmt"

	"innovaradar/internal/domain/opportunity"
)

// Kind tags a progress event.
type Kind string

const (
	KindLog    Kind = "log"
	KindResult Kind = "result"
)

// Event is one element of the progress stream emitted by long-running
// operations (matching, ingestion). A stream is an ordered, finite sequence:
// zero or more log events followed by exactly one result event, after which
// the producer closes the channel. Consumers must drain the channel to
// observe the terminal result.
type Event struct {
	Kind          Kind
	Message       string
	Opportunities []opportunity.Opportunity
}

// Logf builds a log event from a format string.
func Logf(format string, args ...interface{}) Event {
	return Event{Kind: KindLog, Message: fmt.Sprintf(format, args...)}
}

// Result builds the terminal event carrying the accumulated candidates.
func Result(opps []opportunity.Opportunity) Event {
	return Event{Kind: KindResult, Opportunities: opps}
}
