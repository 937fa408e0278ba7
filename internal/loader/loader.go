package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"cinewatch/pkg/models"
)

// Notifier receives the changes of one committed snapshot. It is invoked
// strictly after the snapshot's transaction committed, so a rolled-back
// change is never announced.
type Notifier interface {
	Notify(ctx context.Context, changes []models.ChangeRecord) (sent, total int)
}

// Loader merges collected snapshots into the store, one transaction per
// event. A failure in one event's merge rolls back only that event and the
// run continues with the next one.
type Loader struct {
	DB       *sql.DB
	Repo     *Repo
	Notifier Notifier
	Now      func() time.Time
	logger   *log.Logger
}

func New(db *sql.DB, notifier Notifier, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		DB:       db,
		Repo:     NewRepo(db),
		Notifier: notifier,
		Now:      time.Now,
		logger:   logger,
	}
}

// MergeAll processes every snapshot sequentially and returns the run
// summary. Only the initial reference-data load is fatal; per-event and
// per-row failures are logged and isolated.
func (l *Loader) MergeAll(ctx context.Context, snaps []models.EventSnapshot) (*models.RunResult, error) {
	theaters, err := l.Repo.TheaterMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load theater map: %w", err)
	}

	res := &models.RunResult{}
	for _, snap := range snaps {
		out, err := l.mergeOne(ctx, theaters, snap)
		if err != nil {
			l.logger.Printf("[loader] event %s: %v (rolled back)", snap.EventNo, err)
			res.EventsFailed++
			continue
		}

		res.EventsProcessed++
		res.RowsSeen += out.seen
		res.RowsSkipped += out.skipped
		res.Changes = append(res.Changes, out.changes...)

		if l.Notifier != nil && len(out.changes) > 0 {
			sent, total := l.Notifier.Notify(ctx, out.changes)
			res.NotifySent += sent
			res.NotifyTotal += total
		}
	}
	return res, nil
}

type mergeOutcome struct {
	changes []models.ChangeRecord
	seen    int
	skipped int
}

func (l *Loader) mergeOne(ctx context.Context, theaters map[string]string, snap models.EventSnapshot) (mergeOutcome, error) {
	var out mergeOutcome

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := l.Now()
	if err := l.Repo.UpsertEvent(ctx, tx, snap, now); err != nil {
		return mergeOutcome{}, err
	}

	for _, listings := range snap.Regions {
		for _, li := range listings {
			out.seen++

			theaterID, ok := theaters[li.Theater]
			if !ok {
				// unresolved reference: no write, no notification
				l.logger.Printf("[loader] unknown theater %q (event %s), skipped", li.Theater, snap.EventNo)
				out.skipped++
				continue
			}

			oldStatus, hasOld, err := l.Repo.CurrentStatus(ctx, tx, theaterID, snap.EventNo)
			if err != nil {
				l.logger.Printf("[loader] event %s theater %s: %v, row skipped", snap.EventNo, theaterID, err)
				continue
			}

			if Classify(oldStatus, hasOld, li.Status) == Unchanged {
				continue
			}

			if err := l.Repo.UpsertStatus(ctx, tx, theaterID, snap.EventNo, li.Status, now); err != nil {
				l.logger.Printf("[loader] event %s theater %s: %v, row skipped", snap.EventNo, theaterID, err)
				continue
			}

			out.changes = append(out.changes, models.ChangeRecord{
				TheaterID:   theaterID,
				TheaterName: li.Theater,
				EventID:     snap.EventNo,
				MovieTitle:  snap.MovieTitle,
				EventTitle:  snap.DisplayTitle(),
				OldStatus:   oldStatus,
				HasOld:      hasOld,
				NewStatus:   li.Status,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return mergeOutcome{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}
