package crawler

import (
	"context"

	"cinewatch/pkg/models"
)

// Source is implemented by each external event source. A source discovers
// the currently running promotional events and fetches one event's full
// per-region availability listing.
//
// FetchSnapshot errors are per-event: the collector logs them and moves on,
// one broken event page must not kill the whole run.
type Source interface {
	Name() string
	DiscoverEvents(ctx context.Context) ([]models.EventInfo, error)
	FetchSnapshot(ctx context.Context, ev models.EventInfo) (*models.EventSnapshot, error)
}
