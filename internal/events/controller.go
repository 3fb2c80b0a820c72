// Package events keeps a local page of the remote event collection in sync
// and mediates create, update and delete.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"rollcall/internal/apiclient"
)

// Event mirrors the server's event representation.
type Event struct {
	ID          string `json:"_id"`
	Title       string `json:"eventTitle"`
	Description string `json:"eventDescription"`
	Date        string `json:"date"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Input carries the editable event fields.
type Input struct {
	Title       string `json:"eventTitle"`
	Description string `json:"eventDescription"`
	Date        string `json:"date"`
}

// Validate checks that all fields are present and the date is a calendar day.
func (in Input) Validate() error {
	if in.Title == "" || in.Description == "" || in.Date == "" {
		return errors.New("title, description and date are required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	return nil
}

// Alerter surfaces user-facing notifications.
type Alerter interface {
	Alert(title, message string)
}

// Confirmer guards destructive actions; the delete call fires only when it
// returns true.
type Confirmer func(prompt string) bool

// Controller holds the server-truth cache of one page of events.
type Controller struct {
	client  *apiclient.Client
	alert   Alerter
	confirm Confirmer
	log     *slog.Logger

	fetching atomic.Bool

	mu     sync.Mutex
	events []Event
	page   int
	limit  int
	total  int
}

// NewController creates a controller. confirm may be nil, in which case
// deletes proceed unguarded (used by non-interactive callers).
func NewController(client *apiclient.Client, alert Alerter, confirm Confirmer) *Controller {
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &Controller{
		client:  client,
		alert:   alert,
		confirm: confirm,
		log:     slog.Default(),
		page:    1,
		limit:   10,
	}
}

// Events returns a copy of the cached page.
func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Total returns the server-reported collection size.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Page returns the current page number.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Limit returns the current page size.
func (c *Controller) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

// List fetches one page and replaces the local cache. A 404 from the server
// is its way of signaling an empty collection, so it is normalized to an
// empty page rather than reported as a failure.
func (c *Controller) List(ctx context.Context, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	c.fetching.Store(true)
	defer c.fetching.Store(false)

	var resp struct {
		Success bool    `json:"success"`
		Events  []Event `json:"events"`
		Total   int     `json:"total"`
	}
	err := c.client.Get(ctx, fmt.Sprintf("events?page=%d&limit=%d", page, limit), &resp)
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			c.replace(nil, 0, page, limit)
			return nil
		}
		c.alert.Alert("Error", "Could not load events.")
		return err
	}
	if !resp.Success {
		c.alert.Alert("Error", "Could not load events.")
		return errors.New("invalid response format")
	}
	c.replace(resp.Events, resp.Total, page, limit)
	return nil
}

// Create validates the fields locally, posts the event, and on success
// refetches the current page. The create endpoint does not echo the created
// object, so a local splice is impossible; the new event appears once the
// refetch completes.
func (c *Controller) Create(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		c.alert.Alert("Incomplete", err.Error())
		return err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.client.Post(ctx, "events", in, &resp); err != nil {
		c.alert.Alert("Error", "Failed to add event: "+err.Error())
		return err
	}
	if resp.Message != "succesfully created" {
		err := errors.New("unexpected response")
		c.alert.Alert("Error", "Failed to add event: "+err.Error())
		return err
	}
	return c.List(ctx, c.Page(), c.Limit())
}

// Update patches the event and splices the server's returned representation
// into the local cache, so no refetch is needed.
func (c *Controller) Update(ctx context.Context, id string, in Input) error {
	if err := in.Validate(); err != nil {
		c.alert.Alert("Incomplete", err.Error())
		return err
	}

	var resp struct {
		Success      bool  `json:"success"`
		UpdatedEvent Event `json:"updatedEvent"`
	}
	if err := c.client.Patch(ctx, "events/"+id, in, &resp); err != nil {
		c.alert.Alert("Error", "Failed to update event: "+err.Error())
		return err
	}
	if !resp.Success || resp.UpdatedEvent.ID == "" {
		err := errors.New("unexpected response")
		c.alert.Alert("Error", "Failed to update event: "+err.Error())
		return err
	}

	c.mu.Lock()
	for i := range c.events {
		if c.events[i].ID == id {
			c.events[i] = resp.UpdatedEvent
		}
	}
	c.mu.Unlock()
	return nil
}

// Delete asks the confirmer before calling the server, then removes the
// event from the local cache by id.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if !c.confirm("Delete this event?") {
		return nil
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.client.Delete(ctx, "events/"+id, &resp); err != nil {
		c.alert.Alert("Error", "Failed to delete event: "+err.Error())
		return err
	}
	if !resp.Success {
		err := errors.New("unexpected response")
		c.alert.Alert("Error", "Failed to delete event: "+err.Error())
		return err
	}

	c.mu.Lock()
	kept := c.events[:0]
	for _, ev := range c.events {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	c.events = kept
	if c.total > 0 {
		c.total--
	}
	c.mu.Unlock()
	return nil
}

// Poll refetches the current page on a fixed interval until ctx is
// cancelled, skipping ticks while a fetch is already in flight. It
// approximates live updates without push infrastructure.
func (c *Controller) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.fetching.Load() {
				continue
			}
			if err := c.List(ctx, c.Page(), c.Limit()); err != nil {
				c.log.Debug("poll refresh failed", "err", err)
			}
		}
	}
}

func (c *Controller) replace(events []Event, total, page, limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
	c.total = total
	c.page = page
	c.limit = limit
}
