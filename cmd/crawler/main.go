package main

import (
	"context"
	"log"
	"os"
	"time"

	"cinewatch/internal/crawler"
	"cinewatch/pkg/artifact"
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

	src := crawler.NewCGVSource(cfg.Crawler.BaseURL, cfg.Crawler.Timeout.Std())

	events, err := src.DiscoverEvents(ctx)
	if err != nil {
		log.Fatalf("discover events: %v", err)
	}
	log.Printf("[crawler] discovered %d events", len(events))

	col := crawler.NewCollector(src, cfg.Crawler.Concurrency)
	snaps := col.CollectAll(ctx, events)
	log.Printf("[crawler] collected %d/%d snapshots", len(snaps), len(events))

	key, err := store.SaveSnapshot(ctx, snaps)
	if err != nil {
		log.Fatalf("save snapshot: %v", err)
	}
	log.Printf("[crawler] snapshot saved: %s", key)
}

func configPath() string {
	if p := os.Getenv("CINEWATCH_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
