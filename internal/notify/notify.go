package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"cinewatch/pkg/models"
)

const (
	EventUpdatePath  = "/api/internal/notifications/event-update"
	StatusChangePath = "/api/internal/notifications/status-change"
)

// EventUpdateMessage announces an event newly sighted at a theater.
type EventUpdateMessage struct {
	TheaterID   string `json:"theater_id"`
	TheaterName string `json:"theater_name"`
	EventTitle  string `json:"event_title"`
}

// StatusChangeMessage announces a status transition for an existing
// (theater, event) pair.
type StatusChangeMessage struct {
	TheaterID   string `json:"theater_id"`
	TheaterName string `json:"theater_name"`
	EventTitle  string `json:"event_title"`
	Status      string `json:"status"`
}

// Payload is one queued outbound notification. Payloads are collected as
// plain data while the owning transaction is open and only posted after it
// commits, so a rolled-back change is never announced.
type Payload struct {
	Path string
	Body any
}

// Dispatcher posts change notifications to the backend API. Delivery is
// best-effort: one attempt per payload with a bounded timeout, failures are
// logged and counted, never retried. An empty base URL disables dispatch.
type Dispatcher struct {
	BaseURL string
	Client  *http.Client
	logger  *log.Logger
}

func NewDispatcher(baseURL string, timeout time.Duration, logger *log.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (d *Dispatcher) Enabled() bool { return d.BaseURL != "" }

// Queue converts a detected change into its outbound payload. First
// sighting of a pair becomes an event-update; a transition on an existing
// pair becomes a status-change carrying the new value.
func (d *Dispatcher) Queue(c models.ChangeRecord) Payload {
	if !c.HasOld {
		return Payload{
			Path: EventUpdatePath,
			Body: EventUpdateMessage{
				TheaterID:   c.TheaterID,
				TheaterName: c.TheaterName,
				EventTitle:  c.EventTitle,
			},
		}
	}
	return Payload{
		Path: StatusChangePath,
		Body: StatusChangeMessage{
			TheaterID:   c.TheaterID,
			TheaterName: c.TheaterName,
			EventTitle:  c.EventTitle,
			Status:      c.NewStatus,
		},
	}
}

// Flush posts every queued payload and reports (sent, total). A failed
// post does not block the remaining payloads.
func (d *Dispatcher) Flush(ctx context.Context, payloads []Payload) (sent, total int) {
	if !d.Enabled() || len(payloads) == 0 {
		return 0, 0
	}

	for _, p := range payloads {
		total++
		if err := d.post(ctx, p); err != nil {
			d.logger.Printf("[notify] POST %s failed: %v", p.Path, err)
			continue
		}
		sent++
	}
	return sent, total
}

// Notify queues and flushes in one step, for callers holding bare change
// records after a commit.
func (d *Dispatcher) Notify(ctx context.Context, changes []models.ChangeRecord) (sent, total int) {
	if !d.Enabled() || len(changes) == 0 {
		return 0, 0
	}
	payloads := make([]Payload, 0, len(changes))
	for _, c := range changes {
		payloads = append(payloads, d.Queue(c))
	}
	return d.Flush(ctx, payloads)
}

func (d *Dispatcher) post(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p.Body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+p.Path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx response from the notification endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
