package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cinewatch/pkg/models"
)

// LocalStore keeps artifacts on the filesystem: snapshots under
// <dir>/data, run logs under <dir>/logs. The newest data file (by the
// timestamp embedded in its name) is the latest snapshot.
type LocalStore struct {
	Dir string
	Now func() time.Time
}

func NewLocalStore(dir string) *LocalStore {
	if dir == "" {
		dir = "."
	}
	return &LocalStore{Dir: dir, Now: time.Now}
}

func (s *LocalStore) SaveSnapshot(_ context.Context, snaps []models.EventSnapshot) (string, error) {
	dataDir := filepath.Join(s.Dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dataDir, err)
	}

	b, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	path := filepath.Join(dataDir, "raw_"+s.Now().Format(timeLayout)+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (s *LocalStore) LoadLatestSnapshot(_ context.Context) ([]models.EventSnapshot, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "data", "raw_*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob data dir: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoSnapshot
	}

	// timestamped names sort chronologically
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", latest, err)
	}

	var snaps []models.EventSnapshot
	if err := json.Unmarshal(b, &snaps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", latest, err)
	}
	return snaps, nil
}

func (s *LocalStore) SaveRunLog(_ context.Context, content string) (string, error) {
	logDir := filepath.Join(s.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, "update_"+s.Now().Format(timeLayout)+".log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
