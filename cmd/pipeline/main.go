package main

import (
	"context"
	"log"
	"os"
	"time"

	"cinewatch/internal/crawler"
	"cinewatch/internal/loader"
	"cinewatch/internal/notify"
	"cinewatch/pkg/artifact"
	"cinewatch/pkg/database"
	"cinewatch/pkg/utils"
)

// Full run: crawl the source, persist the snapshot artifact, merge it into
// the store, dispatch notifications for committed changes, write the run
// log. Stages after the crawl reuse the freshly collected snapshots.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	cfg, err := utils.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := artifact.NewStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("init artifact store: %v", err)
	}

	log.Printf("[pipeline] 1/3 crawling")
	src := crawler.NewCGVSource(cfg.Crawler.BaseURL, cfg.Crawler.Timeout.Std())
	events, err := src.DiscoverEvents(ctx)
	if err != nil {
		log.Fatalf("discover events: %v", err)
	}
	snaps := crawler.NewCollector(src, cfg.Crawler.Concurrency).CollectAll(ctx, events)
	log.Printf("[pipeline] collected %d/%d snapshots", len(snaps), len(events))

	if _, err := store.SaveSnapshot(ctx, snaps); err != nil {
		log.Fatalf("save snapshot: %v", err)
	}

	log.Printf("[pipeline] 2/3 merging")
	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	dispatcher := notify.NewDispatcher(cfg.Notify.BaseURL, cfg.Notify.Timeout.Std(), nil)
	res, err := loader.New(db, dispatcher, nil).MergeAll(ctx, snaps)
	if err != nil {
		log.Fatalf("merge failed: %v", err)
	}

	log.Printf("[pipeline] 3/3 writing run log")
	if _, err := store.SaveRunLog(ctx, loader.BuildRunLog(res.Changes, time.Now())); err != nil {
		log.Fatalf("save run log: %v", err)
	}

	log.Printf("[pipeline] done: events=%d failed=%d changes=%d notified=%d/%d",
		res.EventsProcessed, res.EventsFailed, len(res.Changes), res.NotifySent, res.NotifyTotal)
}

func configPath() string {
	if p := os.Getenv("CINEWATCH_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
