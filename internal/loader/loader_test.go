package loader

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinewatch/pkg/database"
	"cinewatch/pkg/models"
)

// Mirrors docs/schema.sql, with the event_location foreign key deferred so
// tests can force a commit-time failure.
const testSchema = `
CREATE TABLE theaters (
  id TEXT PRIMARY KEY,
  brand TEXT,
  name TEXT NOT NULL UNIQUE,
  address TEXT,
  lat REAL,
  lng REAL
);
CREATE TABLE events (
  id TEXT PRIMARY KEY,
  movie_title TEXT NOT NULL,
  title TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'giveaway',
  start_at TIMESTAMP,
  end_at TIMESTAMP,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE event_location (
  id TEXT PRIMARY KEY,
  theater_id TEXT NOT NULL REFERENCES theaters(id) DEFERRABLE INITIALLY DEFERRED,
  event_id TEXT NOT NULL,
  status TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  UNIQUE (theater_id, event_id)
);
CREATE TRIGGER reject_poison_event BEFORE INSERT ON events
WHEN NEW.id = 'poison'
BEGIN
  SELECT RAISE(ABORT, 'injected failure');
END;
`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// a single conn keeps the :memory: database alive across statements
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`PRAGMA foreign_keys = ON;`)
	require.NoError(t, err)
	require.NoError(t, database.MigrateSQL(db, testSchema))

	_, err = db.Exec(`
		INSERT INTO theaters (id, brand, name) VALUES
		  ('t-yongsan', 'CGV', 'Yongsan'),
		  ('t-gangnam', 'CGV', 'Gangnam')
	`)
	require.NoError(t, err)
	return db
}

// fakeNotifier records committed changes instead of posting them.
type fakeNotifier struct {
	got []models.ChangeRecord
}

func (f *fakeNotifier) Notify(_ context.Context, changes []models.ChangeRecord) (int, int) {
	f.got = append(f.got, changes...)
	return len(changes), len(changes)
}

func snapshot(eventNo string, listings ...models.Listing) models.EventSnapshot {
	return models.EventSnapshot{
		EventInfo: models.EventInfo{
			No:         eventNo,
			MovieTitle: "Movie A",
			EventTitle: "poster giveaway",
			StartDate:  "20260101",
			EndDate:    "20260131",
		},
		EventNo: eventNo,
		Regions: map[string][]models.Listing{"Seoul": listings},
	}
}

func newTestLoader(db *sql.DB, n Notifier) *Loader {
	l := New(db, n, nil)
	l.Now = func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }
	return l
}

func rowStatus(t *testing.T, db *sql.DB, theaterID, eventID string) (string, bool) {
	t.Helper()
	var status string
	err := db.QueryRow(`SELECT status FROM event_location WHERE theater_id = ? AND event_id = ?`,
		theaterID, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", false
	}
	require.NoError(t, err)
	return status, true
}

func TestMergeAll_StatusChange(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`
		INSERT INTO event_location (id, theater_id, event_id, status, updated_at)
		VALUES ('row-1', 't-yongsan', '123', 'AVAILABLE', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	n := &fakeNotifier{}
	l := newTestLoader(db, n)

	res, err := l.MergeAll(context.Background(), []models.EventSnapshot{
		snapshot("123", models.Listing{Theater: "Yongsan", Status: "SOLDOUT"}),
	})
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	c := res.Changes[0]
	assert.Equal(t, "t-yongsan", c.TheaterID)
	assert.True(t, c.HasOld)
	assert.Equal(t, "AVAILABLE", c.OldStatus)
	assert.Equal(t, "SOLDOUT", c.NewStatus)

	status, ok := rowStatus(t, db, "t-yongsan", "123")
	require.True(t, ok)
	assert.Equal(t, "SOLDOUT", status)

	require.Len(t, n.got, 1)
	assert.Equal(t, 1, res.NotifySent)

	line := FormatChange(c, l.Now())
	assert.Contains(t, line, "[AVAILABLE]→[SOLDOUT]")
	assert.Contains(t, line, "Movie A")
	assert.Contains(t, line, "Yongsan")
}

func TestMergeAll_NewRegistration(t *testing.T) {
	db := setupDB(t)
	n := &fakeNotifier{}
	l := newTestLoader(db, n)

	res, err := l.MergeAll(context.Background(), []models.EventSnapshot{
		snapshot("123", models.Listing{Theater: "Yongsan", Status: "SOLDOUT"}),
	})
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.False(t, res.Changes[0].HasOld)

	status, ok := rowStatus(t, db, "t-yongsan", "123")
	require.True(t, ok)
	assert.Equal(t, "SOLDOUT", status)

	// event metadata upserted alongside
	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM events WHERE id = '123'`).Scan(&title))
	assert.Equal(t, "Movie A - poster giveaway", title)

	assert.Contains(t, FormatChange(res.Changes[0], l.Now()), "[newly registered: SOLDOUT]")
}

func TestMergeAll_Idempotent(t *testing.T) {
	db := setupDB(t)
	n := &fakeNotifier{}
	l := newTestLoader(db, n)

	snaps := []models.EventSnapshot{
		snapshot("123",
			models.Listing{Theater: "Yongsan", Status: "SOLDOUT"},
			models.Listing{Theater: "Gangnam", Status: "AVAILABLE"},
		),
	}

	first, err := l.MergeAll(context.Background(), snaps)
	require.NoError(t, err)
	require.Len(t, first.Changes, 2)
	require.Len(t, n.got, 2)

	second, err := l.MergeAll(context.Background(), snaps)
	require.NoError(t, err)
	assert.Empty(t, second.Changes, "second pass must detect nothing")
	assert.Len(t, n.got, 2, "no additional notifications")
	assert.Equal(t, 0, second.NotifyTotal)
}

func TestMergeAll_UnknownTheaterSkipped(t *testing.T) {
	db := setupDB(t)
	n := &fakeNotifier{}
	l := newTestLoader(db, n)

	res, err := l.MergeAll(context.Background(), []models.EventSnapshot{
		snapshot("123",
			models.Listing{Theater: "Nowhere", Status: "AVAILABLE"},
			models.Listing{Theater: "Gangnam", Status: "AVAILABLE"},
		),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowsSkipped)
	assert.Equal(t, 2, res.RowsSeen)
	require.Len(t, res.Changes, 1, "remaining rows still processed")
	assert.Equal(t, "t-gangnam", res.Changes[0].TheaterID)

	_, ok := rowStatus(t, db, "Nowhere", "123")
	assert.False(t, ok)
}

func TestMergeAll_EventIsolation(t *testing.T) {
	db := setupDB(t)
	n := &fakeNotifier{}
	l := newTestLoader(db, n)

	res, err := l.MergeAll(context.Background(), []models.EventSnapshot{
		snapshot("poison", models.Listing{Theater: "Yongsan", Status: "AVAILABLE"}),
		snapshot("456", models.Listing{Theater: "Gangnam", Status: "AVAILABLE"}),
	})
	require.NoError(t, err, "a failed event must not fail the run")

	assert.Equal(t, 1, res.EventsFailed)
	assert.Equal(t, 1, res.EventsProcessed)

	// nothing of the poisoned event survives
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE id = 'poison'`).Scan(&count))
	assert.Zero(t, count)

	// the later event committed normally
	status, ok := rowStatus(t, db, "t-gangnam", "456")
	require.True(t, ok)
	assert.Equal(t, "AVAILABLE", status)

	require.Len(t, n.got, 1)
	assert.Equal(t, "456", n.got[0].EventID)
}

func TestMergeOne_CommitFailureRollsBack(t *testing.T) {
	db := setupDB(t)
	l := newTestLoader(db, nil)

	// ghost theater id passes name resolution but violates the deferred
	// foreign key at commit time
	theaters := map[string]string{"Yongsan": "t-ghost"}

	_, err := l.mergeOne(context.Background(), theaters,
		snapshot("123", models.Listing{Theater: "Yongsan", Status: "AVAILABLE"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")

	// the event upsert from the same transaction is gone too
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE id = '123'`).Scan(&count))
	assert.Zero(t, count)
}

func TestMergeAll_NoSnapshots(t *testing.T) {
	db := setupDB(t)
	l := newTestLoader(db, &fakeNotifier{})

	res, err := l.MergeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.EventsProcessed)
	assert.Empty(t, res.Changes)
}
