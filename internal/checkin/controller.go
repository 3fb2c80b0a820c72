// Package checkin drives the scan, review and decision cycle for one event's
// attendance session.
package checkin

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"rollcall/internal/apiclient"
	"rollcall/internal/qr"
)

// State is the controller's position in the per-scan cycle.
type State int

const (
	// StateScanning accepts scan callbacks. Initial state.
	StateScanning State = iota
	// StatePendingReview holds a decoded record awaiting approve/reject.
	StatePendingReview
	// StateSubmitting has a network call in flight; decisions are locked out.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StatePendingReview:
		return "pending-review"
	case StateSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Session is the coarse time-of-day bucket an attendance record is filed
// under.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// ErrNoToken short-circuits Approve before any network call when no auth
// token is loaded.
var ErrNoToken = errors.New("no authentication token found")

// ErrSessionLocked is returned when the AM/PM selector is changed outside the
// scanning state.
var ErrSessionLocked = errors.New("session locked while a scan is pending")

// Alerter surfaces user-facing notifications. The terminal client prints
// them; a GUI would raise a dialog.
type Alerter interface {
	Alert(title, message string)
}

// Payload is the attendance submission body: the student record plus exactly
// one session flag.
type Payload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CSY       string `json:"CSY"`
	StudentID string `json:"studentId"`
	Gbox      string `json:"gbox"`
	AM        bool   `json:"AM,omitempty"`
	PM        bool   `json:"PM,omitempty"`
}

// Controller owns the state machine for one check-in screen instance. Scan
// callbacks arriving outside the scanning state are dropped, which guarantees
// at most one student record is in review or in flight at a time.
type Controller struct {
	eventID string
	client  *apiclient.Client
	alert   Alerter
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	session Session
	record  *qr.StudentRecord
}

// New creates a controller for eventID, starting in the scanning state with
// the AM session selected.
func New(eventID string, client *apiclient.Client, alert Alerter) *Controller {
	return &Controller{
		eventID: eventID,
		client:  client,
		alert:   alert,
		log:     slog.Default(),
		state:   StateScanning,
		session: SessionAM,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the selected AM/PM session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession switches the AM/PM selector. Only legal while scanning.
func (c *Controller) SetSession(s Session) error {
	if s != SessionAM && s != SessionPM {
		return errors.New("unknown session: " + string(s))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateScanning {
		return ErrSessionLocked
	}
	c.session = s
	return nil
}

// Record returns the record pending review, if any.
func (c *Controller) Record() (qr.StudentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return qr.StudentRecord{}, false
	}
	return *c.record, true
}

// HandleScan processes one scan callback. Outside the scanning state it is a
// no-op. A payload that fails to decode raises an alert and scanning resumes
// immediately; a decoded record moves the controller to pending review.
func (c *Controller) HandleScan(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateScanning {
		c.log.Debug("scan dropped", "state", c.state.String())
		return
	}
	record, err := qr.Decode(data)
	if err != nil {
		c.alert.Alert("Error", "Invalid QR code format. Please try again.")
		return
	}
	c.record = &record
	c.state = StatePendingReview
}

// Reject discards the pending record without a network call and resumes
// scanning. A no-op outside pending review.
func (c *Controller) Reject() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePendingReview {
		return
	}
	c.record = nil
	c.state = StateScanning
}

// Approve submits the pending record. Each call issues at most one network
// request; while it is in flight further Approve and Reject calls are no-ops.
// On success the record is discarded and scanning resumes. On failure the
// controller returns to pending review with the record preserved so the
// operator may retry or reject.
func (c *Controller) Approve(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePendingReview {
		c.mu.Unlock()
		return nil
	}
	if c.client.Tokens == nil || c.client.Tokens.Token() == "" {
		c.mu.Unlock()
		c.alert.Alert("Error", "No authentication token found. Please login again.")
		return ErrNoToken
	}
	record := *c.record
	session := c.session
	c.state = StateSubmitting
	c.mu.Unlock()

	payload := buildPayload(record, session)
	err := c.client.Post(ctx, "attendance/"+c.eventID, payload, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StatePendingReview
		c.alert.Alert("Error", "Failed to submit attendance: "+err.Error())
		return err
	}
	c.record = nil
	c.state = StateScanning
	c.alert.Alert("Success", "Attendance recorded successfully")
	return nil
}

// buildPayload merges the record with the flag for the chosen session.
func buildPayload(record qr.StudentRecord, session Session) Payload {
	p := Payload{
		FirstName: record.FirstName,
		LastName:  record.LastName,
		CSY:       record.CSY,
		StudentID: record.StudentID,
		Gbox:      record.Gbox,
	}
	if session == SessionPM {
		p.PM = true
	} else {
		p.AM = true
	}
	return p
}
