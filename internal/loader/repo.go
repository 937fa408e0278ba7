package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinewatch/pkg/models"
)

const dateLayout = "20060102"

// Repo holds the store-side operations of the merge. All writes run inside
// the caller's per-snapshot transaction; TheaterMap is the one read that
// happens outside, once per run.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// TheaterMap loads the reference name -> id mapping in a single query. The
// result is treated as an immutable snapshot for the whole run.
func (r *Repo) TheaterMap(ctx context.Context) (map[string]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM theaters`)
	if err != nil {
		return nil, fmt.Errorf("query theaters: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan theater: %w", err)
		}
		m[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate theaters: %w", err)
	}
	return m, nil
}

// UpsertEvent inserts or updates the event metadata row. The update path
// only touches title and run dates, never the identity.
func (r *Repo) UpsertEvent(ctx context.Context, tx *sql.Tx, snap models.EventSnapshot, now time.Time) error {
	startAt := parseYMD(snap.StartDate, now)
	endAt := parseYMD(snap.EndDate, now)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, movie_title, title, type, start_at, end_at, created_at)
		VALUES (?, ?, ?, 'giveaway', ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  start_at = excluded.start_at,
		  end_at = excluded.end_at
	`, snap.EventNo, snap.MovieTitle, snap.DisplayTitle(), startAt, endAt, now)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", snap.EventNo, err)
	}
	return nil
}

// CurrentStatus returns the stored status for a pair, with ok=false when
// no row exists yet.
func (r *Repo) CurrentStatus(ctx context.Context, tx *sql.Tx, theaterID, eventID string) (string, bool, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT status FROM event_location
		WHERE theater_id = ? AND event_id = ?
	`, theaterID, eventID)

	var status string
	if err := row.Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("scan status (%s, %s): %w", theaterID, eventID, err)
	}
	return status, true, nil
}

// UpsertStatus inserts or updates the inventory row for a pair and always
// refreshes updated_at.
func (r *Repo) UpsertStatus(ctx context.Context, tx *sql.Tx, theaterID, eventID, status string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO event_location (id, theater_id, event_id, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(theater_id, event_id) DO UPDATE SET
		  status = excluded.status,
		  updated_at = excluded.updated_at
	`, uuid.NewString(), theaterID, eventID, status, now)
	if err != nil {
		return fmt.Errorf("upsert status (%s, %s): %w", theaterID, eventID, err)
	}
	return nil
}

func parseYMD(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fallback
	}
	return t
}
