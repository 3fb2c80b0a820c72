package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rollcall/internal/apiclient"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type alertRecorder struct {
	messages []string
}

func (a *alertRecorder) Alert(title, message string) {
	a.messages = append(a.messages, title+": "+message)
}

func newTestController(t *testing.T, handler http.Handler, confirm Confirmer) (*Controller, *alertRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	alerts := &alertRecorder{}
	client := apiclient.New(srv.URL, time.Second, staticToken("tok"))
	return NewController(client, alerts, confirm), alerts
}

func TestListReplacesCache(t *testing.T) {
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"events": []Event{
				{ID: "e1", Title: "Orientation", Description: "Freshman welcome", Date: "2026-09-01"},
				{ID: "e2", Title: "Hackathon", Description: "24h build", Date: "2026-09-15"},
			},
			"total": 12,
		})
	}), nil)

	if err := ctrl.List(context.Background(), 2, 5); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := ctrl.Events(); len(got) != 2 || got[0].ID != "e1" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if ctrl.Total() != 12 || ctrl.Page() != 2 || ctrl.Limit() != 5 {
		t.Errorf("pagination state = total %d page %d limit %d", ctrl.Total(), ctrl.Page(), ctrl.Limit())
	}
}

func TestListNotFoundIsEmptyPage(t *testing.T) {
	ctrl, alerts := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no events found"}`))
	}), nil)

	if err := ctrl.List(context.Background(), 1, 10); err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if len(ctrl.Events()) != 0 {
		t.Errorf("events = %v, want empty", ctrl.Events())
	}
	if ctrl.Total() != 0 {
		t.Errorf("total = %d, want 0", ctrl.Total())
	}
	if len(alerts.messages) != 0 {
		t.Errorf("404 raised alerts: %v", alerts.messages)
	}
}

func TestListServerErrorLeavesStateAndAlerts(t *testing.T) {
	fail := false
	ctrl, alerts := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"events":  []Event{{ID: "e1", Title: "Orientation", Description: "d", Date: "2026-09-01"}},
			"total":   1,
		})
	}), nil)

	if err := ctrl.List(context.Background(), 1, 10); err != nil {
		t.Fatalf("seed list failed: %v", err)
	}
	fail = true
	if err := ctrl.List(context.Background(), 1, 10); err == nil {
		t.Fatal("expected error")
	}
	if len(ctrl.Events()) != 1 {
		t.Errorf("failure mutated cache: %v", ctrl.Events())
	}
	if len(alerts.messages) == 0 || !strings.Contains(alerts.messages[0], "Could not load events") {
		t.Errorf("alerts = %v, want load-failure alert", alerts.messages)
	}
}

func TestCreateValidationBlocksNetwork(t *testing.T) {
	calls := 0
	ctrl, alerts := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}), nil)

	cases := []Input{
		{Title: "", Description: "d", Date: "2026-09-01"},
		{Title: "t", Description: "", Date: "2026-09-01"},
		{Title: "t", Description: "d", Date: ""},
		{Title: "t", Description: "d", Date: "September 1"},
	}
	for _, in := range cases {
		if err := ctrl.Create(context.Background(), in); err == nil {
			t.Errorf("Create(%+v) succeeded, want validation error", in)
		}
	}
	if calls != 0 {
		t.Errorf("validation failures issued %d network calls", calls)
	}
	if len(alerts.messages) != len(cases) {
		t.Errorf("got %d alerts, want %d", len(alerts.messages), len(cases))
	}
}

func TestCreateTriggersRefetch(t *testing.T) {
	var gets, posts int
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts++
			var in Input
			json.NewDecoder(r.Body).Decode(&in)
			if in.Title != "Sports Fest" {
				t.Errorf("posted title = %q", in.Title)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"succesfully created"}`))
		case http.MethodGet:
			gets++
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"events":  []Event{{ID: "e9", Title: "Sports Fest", Description: "d", Date: "2026-10-02"}},
				"total":   1,
			})
		}
	}), nil)

	err := ctrl.Create(context.Background(), Input{Title: "Sports Fest", Description: "d", Date: "2026-10-02"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if posts != 1 || gets != 1 {
		t.Errorf("posts = %d gets = %d, want one of each", posts, gets)
	}
	if got := ctrl.Events(); len(got) != 1 || got[0].ID != "e9" {
		t.Errorf("cache after refetch: %+v", got)
	}
}

func TestUpdateSplicesServerRepresentation(t *testing.T) {
	var gets int
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets++
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"events": []Event{
					{ID: "e1", Title: "Orientation", Description: "d", Date: "2026-09-01"},
					{ID: "e2", Title: "Hackathon", Description: "d", Date: "2026-09-15"},
				},
				"total": 2,
			})
		case http.MethodPatch:
			if r.URL.Path != "/events/e2" {
				t.Errorf("patch path = %q", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"success":      true,
				"updatedEvent": Event{ID: "e2", Title: "Hackathon 2026", Description: "48h build", Date: "2026-09-16"},
			})
		}
	}), nil)

	if err := ctrl.List(context.Background(), 1, 10); err != nil {
		t.Fatalf("seed list failed: %v", err)
	}
	err := ctrl.Update(context.Background(), "e2", Input{Title: "Hackathon 2026", Description: "48h build", Date: "2026-09-16"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if gets != 1 {
		t.Errorf("update refetched the list (%d gets), want local splice only", gets)
	}
	got := ctrl.Events()
	if got[1].Title != "Hackathon 2026" || got[1].Date != "2026-09-16" {
		t.Errorf("splice result: %+v", got[1])
	}
	if got[0].Title != "Orientation" {
		t.Errorf("unrelated item changed: %+v", got[0])
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	calls := 0
	confirmed := false
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"success":true}`))
	}), func(string) bool { return confirmed })

	if err := ctrl.Delete(context.Background(), "e1"); err != nil {
		t.Fatalf("declined delete returned %v", err)
	}
	if calls != 0 {
		t.Fatalf("server called before confirmation (%d calls)", calls)
	}

	confirmed = true
	if err := ctrl.Delete(context.Background(), "e1"); err != nil {
		t.Fatalf("confirmed delete failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDeleteRemovesLocally(t *testing.T) {
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"events": []Event{
					{ID: "e1", Title: "Orientation", Description: "d", Date: "2026-09-01"},
					{ID: "e2", Title: "Hackathon", Description: "d", Date: "2026-09-15"},
				},
				"total": 2,
			})
		case http.MethodDelete:
			w.Write([]byte(`{"success":true}`))
		}
	}), nil)

	if err := ctrl.List(context.Background(), 1, 10); err != nil {
		t.Fatalf("seed list failed: %v", err)
	}
	if err := ctrl.Delete(context.Background(), "e1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got := ctrl.Events()
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("cache after delete: %+v", got)
	}
	if ctrl.Total() != 1 {
		t.Errorf("total = %d, want 1", ctrl.Total())
	}
}

func TestPollSkipsWhileFetchInFlight(t *testing.T) {
	release := make(chan struct{})
	var gets int
	ctrl, _ := newTestController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets++
		if gets == 1 {
			<-release
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "events": []Event{}, "total": 0})
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Poll(ctx, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- ctrl.List(ctx, 1, 10) }()

	// Several poll ticks elapse while the explicit fetch is blocked; the
	// in-flight gate must keep them from stacking up.
	time.Sleep(60 * time.Millisecond)
	if gets != 1 {
		t.Errorf("gets = %d while a fetch was in flight, want 1", gets)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("list failed: %v", err)
	}
	cancel()
}
