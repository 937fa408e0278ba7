// Package artifact persists the raw crawl snapshot and the per-run change
// log, either to a local directory or to S3. The snapshot saved by one run
// is the input to the next pipeline stage, found via a "latest" pointer.
package artifact

import (
	"context"
	"errors"
	"fmt"

	"cinewatch/pkg/models"
	"cinewatch/pkg/utils"
)

// ErrNoSnapshot is returned by LoadLatestSnapshot when no crawl data has
// been stored yet. Callers treat it as a fatal setup failure.
var ErrNoSnapshot = errors.New("no snapshot artifact available")

const timeLayout = "20060102_150405"

// Store persists run artifacts.
type Store interface {
	// SaveSnapshot writes the full snapshot list of one run and updates
	// the latest pointer. Returns the key or path written.
	SaveSnapshot(ctx context.Context, snaps []models.EventSnapshot) (string, error)

	// LoadLatestSnapshot returns the most recently saved snapshot list.
	LoadLatestSnapshot(ctx context.Context) ([]models.EventSnapshot, error)

	// SaveRunLog writes the run's change log. Returns the key or path.
	SaveRunLog(ctx context.Context, content string) (string, error)
}

// NewStore builds a Store from config.
func NewStore(ctx context.Context, cfg utils.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir), nil
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
