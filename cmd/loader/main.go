package main

import (
	"context"
	"log"
	"os"
	"time"

	"cinewatch/internal/loader"
	"cinewatch/internal/notify"
	"cinewatch/pkg/artifact"
	"cinewatch/pkg/database"
	"cinewatch/pkg/utils"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := utils.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := artifact.NewStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("init artifact store: %v", err)
	}

	snaps, err := store.LoadLatestSnapshot(ctx)
	if err != nil {
		log.Fatalf("load latest snapshot: %v", err)
	}
	log.Printf("[loader] merging %d snapshots", len(snaps))

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	dispatcher := notify.NewDispatcher(cfg.Notify.BaseURL, cfg.Notify.Timeout.Std(), nil)

	l := loader.New(db, dispatcher, nil)
	res, err := l.MergeAll(ctx, snaps)
	if err != nil {
		log.Fatalf("merge failed: %v", err)
	}

	logKey, err := store.SaveRunLog(ctx, loader.BuildRunLog(res.Changes, time.Now()))
	if err != nil {
		log.Fatalf("save run log: %v", err)
	}

	log.Printf("[loader] events=%d failed=%d rows=%d skipped=%d changes=%d notified=%d/%d log=%s",
		res.EventsProcessed, res.EventsFailed, res.RowsSeen, res.RowsSkipped,
		len(res.Changes), res.NotifySent, res.NotifyTotal, logKey)
}

func configPath() string {
	if p := os.Getenv("CINEWATCH_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
