// internal/service/maintenance/cleaner.go

package maintenance

import (
	"context"
	"fmt"
	"log"

	"innovaradar/internal/domain/client"
	"innovaradar/internal/domain/opportunity"
)

// ClientStore provides the live client set
type ClientStore interface {
	FetchClients(ctx context.Context) ([]client.Client, error)
}

// OpportunityStore provides and deletes opportunities
type OpportunityStore interface {
	FetchOpportunities(ctx context.Context) ([]opportunity.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id int64) error
}

// Cleaner repairs integrity drift: opportunities whose client name no longer
// resolves to a live client are deleted. The write path also refuses such
// rows, so this pass only catches drift that arrives around client deletes.
type Cleaner struct {
	clients ClientStore
	opps    OpportunityStore
}

// NewCleaner creates a new cleaner
func NewCleaner(clients ClientStore, opps OpportunityStore) *Cleaner {
	return &Cleaner{
		clients: clients,
		opps:    opps,
	}
}

// CleanOrphans scans for orphaned opportunities and deletes them, returning
// the number removed. Per-row delete failures are logged and skipped.
func (c *Cleaner) CleanOrphans(ctx context.Context) (int, error) {
	clients, err := c.clients.FetchClients(ctx)
	if err != nil {
		return 0, fmt.Errorf("error fetching clients: %w", err)
	}

	valid := make(map[string]bool, len(clients))
	for _, cl := range clients {
		valid[cl.Name] = true
	}

	opps, err := c.opps.FetchOpportunities(ctx)
	if err != nil {
		return 0, fmt.Errorf("error fetching opportunities: %w", err)
	}

	deleted := 0
	for _, o := range opps {
		if valid[o.ClientName] {
			continue
		}

		if err := c.opps.DeleteOpportunity(ctx, o.ID); err != nil {
			log.Printf("Error deleting orphaned opportunity %d: %v", o.ID, err)
			continue
		}

		log.Printf("Deleted orphaned opportunity %d (client %q)", o.ID, o.ClientName)
		deleted++
	}

	if deleted > 0 {
		log.Printf("Orphan cleanup complete, %d opportunities removed", deleted)
	}

	return deleted, nil
}
