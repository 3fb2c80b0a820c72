package devserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the fixture server's event representation, serialized the way the
// production API serializes it.
type Event struct {
	ID          string `json:"_id"`
	Title       string `json:"eventTitle"`
	Description string `json:"eventDescription"`
	Date        string `json:"date"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Attendance is one recorded check-in.
type Attendance struct {
	ID        string `json:"_id"`
	EventID   string `json:"eventId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CSY       string `json:"CSY"`
	StudentID string `json:"studentId"`
	Gbox      string `json:"gbox"`
	AM        bool   `json:"AM,omitempty"`
	PM        bool   `json:"PM,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Store keeps events and attendance in memory; the fixture deliberately has
// no database.
type Store struct {
	mu         sync.Mutex
	events     []Event
	attendance map[string][]Attendance
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{attendance: make(map[string][]Attendance)}
}

// ListEvents returns one page of events plus the total count.
func (s *Store) ListEvents(page, limit int) ([]Event, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.events)
	start := (page - 1) * limit
	if start >= total {
		return nil, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := make([]Event, end-start)
	copy(out, s.events[start:end])
	return out, total
}

// CreateEvent appends a new event with a generated id.
func (s *Store) CreateEvent(title, description, date string) Event {
	now := time.Now().UTC().Format(time.RFC3339)
	ev := Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return ev
}

// UpdateEvent patches an event in place. The second return is false when the
// id is unknown.
func (s *Store) UpdateEvent(id, title, description, date string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		if title != "" {
			s.events[i].Title = title
		}
		if description != "" {
			s.events[i].Description = description
		}
		if date != "" {
			s.events[i].Date = date
		}
		s.events[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return s.events[i], true
	}
	return Event{}, false
}

// DeleteEvent removes an event and its attendance records.
func (s *Store) DeleteEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			delete(s.attendance, id)
			return true
		}
	}
	return false
}

// HasEvent reports whether an event exists.
func (s *Store) HasEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			return true
		}
	}
	return false
}

// AddAttendance records a check-in against an event.
func (s *Store) AddAttendance(eventID string, rec Attendance) Attendance {
	rec.ID = uuid.NewString()
	rec.EventID = eventID
	rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	s.attendance[eventID] = append(s.attendance[eventID], rec)
	s.mu.Unlock()
	return rec
}

// Attendance returns the recorded check-ins for an event.
func (s *Store) Attendance(eventID string) []Attendance {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.attendance[eventID]
	out := make([]Attendance, len(recs))
	copy(out, recs)
	return out
}
