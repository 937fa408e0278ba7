package crawler

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"cinewatch/pkg/models"
)

// DefaultConcurrency bounds simultaneous in-flight fetches. One browsing
// context per fetch is open at a time, so this also caps local resources.
const DefaultConcurrency = 5

// Collector fans one fetch per event out over the source, admission-limited
// by a weighted semaphore, and fans the results back in. Failed fetches are
// logged and omitted; CollectAll returns only after every task finished.
type Collector struct {
	Source      Source
	Concurrency int64
}

func NewCollector(src Source, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Collector{Source: src, Concurrency: int64(concurrency)}
}

// CollectAll fetches a snapshot for every distinct event. Duplicate event
// numbers are dropped before dispatch, first occurrence wins. Result order
// is not significant.
func (c *Collector) CollectAll(ctx context.Context, events []models.EventInfo) []models.EventSnapshot {
	events = dedupEvents(events)

	sem := semaphore.NewWeighted(c.Concurrency)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		snaps []models.EventSnapshot
	)

	for _, ev := range events {
		wg.Add(1)
		go func(ev models.EventInfo) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				log.Printf("[crawler] %s: gate: %v", ev.No, err)
				return
			}
			defer sem.Release(1)

			snap, err := c.Source.FetchSnapshot(ctx, ev)
			if err != nil {
				log.Printf("[crawler] %s: fetch failed: %v", ev.No, err)
				return
			}

			mu.Lock()
			snaps = append(snaps, *snap)
			mu.Unlock()
		}(ev)
	}

	wg.Wait()
	return snaps
}

func dedupEvents(events []models.EventInfo) []models.EventInfo {
	seen := make(map[string]bool, len(events))
	out := make([]models.EventInfo, 0, len(events))
	for _, ev := range events {
		if ev.No == "" || seen[ev.No] {
			continue
		}
		seen[ev.No] = true
		out = append(out, ev)
	}
	return out
}
