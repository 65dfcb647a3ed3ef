package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
	"github.com/mcdev12/kiradelay/go/internal/leaderboard"
	"github.com/mcdev12/kiradelay/go/internal/models"
)

type sentNotification struct {
	userID  uuid.UUID
	enabled bool
	title   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, enabled bool, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID: userID, enabled: enabled, title: title})
	return nil
}

func newTestServer(t *testing.T) (*App, *recordingNotifier, *httptest.Server) {
	t.Helper()
	app := NewApp(NewRepository(kvstore.NewMemory()))
	notifier := &recordingNotifier{}
	r := mux.NewRouter()
	NewService(app, notifier).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return app, notifier, srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServiceSessionFlow(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/session", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before login, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/session", `{"name":"Alice"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", resp.StatusCode)
	}
	var login ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if login.Profile.Name != "Alice" {
		t.Fatalf("expected Alice, got %q", login.Profile.Name)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/session", "")
	var current ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if current.Profile.ID != login.Profile.ID {
		t.Fatalf("expected current user %s, got %s", login.Profile.ID, current.Profile.ID)
	}

	resp = do(t, http.MethodDelete, srv.URL+"/api/session", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/api/session", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after logout, got %d", resp.StatusCode)
	}
}

func TestServiceLoginValidation(t *testing.T) {
	_, _, srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"blank name", `{"name":"   "}`},
		{"malformed body", `{"name":`},
		{"unknown field", `{"name":"Alice","admin":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/session", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestServiceGetProfile(t *testing.T) {
	app, _, srv := newTestServer(t)
	p, _ := app.FindOrCreate(context.Background(), "Alice")

	resp := do(t, http.MethodGet, srv.URL+"/api/profiles/"+p.ID.String(), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/profiles/"+uuid.NewString(), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/profiles/not-a-uuid", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.StatusCode)
	}
}

func TestServiceSetNotifications(t *testing.T) {
	app, notifier, srv := newTestServer(t)
	p, _ := app.FindOrCreate(context.Background(), "Alice")
	url := srv.URL + "/api/profiles/" + p.ID.String() + "/notifications"

	resp := do(t, http.MethodPut, url, `{"enabled":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !body.Profile.NotificationsEnabled {
		t.Fatal("expected notifications enabled in response")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].userID != p.ID || !notifier.sent[0].enabled {
		t.Fatalf("expected one confirmation notification, got %+v", notifier.sent)
	}

	// Already on: no second confirmation
	resp = do(t, http.MethodPut, url, `{"enabled":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected no confirmation when already enabled, got %+v", notifier.sent)
	}

	do(t, http.MethodPut, url, `{"enabled":false}`)
	if len(notifier.sent) != 1 {
		t.Fatalf("expected no notification when disabling, got %+v", notifier.sent)
	}

	do(t, http.MethodPut, url, `{"enabled":true}`)
	if len(notifier.sent) != 2 {
		t.Fatalf("expected a confirmation when re-enabling, got %+v", notifier.sent)
	}
	stored, _ := app.GetByID(context.Background(), p.ID)
	if !stored.NotificationsEnabled {
		t.Fatal("expected notifications enabled")
	}
}

func TestServiceLeaderboard(t *testing.T) {
	ctx := context.Background()
	app, _, srv := newTestServer(t)
	alice, _ := app.FindOrCreate(ctx, "Alice")
	bob, _ := app.FindOrCreate(ctx, "Bob")
	app.FindOrCreate(ctx, "Carol")
	app.RecordOutcome(ctx, OutcomeRequest{UserID: alice.ID, GuessedTime: "08:10", ActualTime: "08:20", DeviationMinutes: 10})
	app.RecordOutcome(ctx, OutcomeRequest{UserID: bob.ID, GuessedTime: "08:18", ActualTime: "08:20", DeviationMinutes: 2, Won: true})

	resp := do(t, http.MethodGet, srv.URL+"/api/leaderboard", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var standings []leaderboard.Standing
	if err := json.NewDecoder(resp.Body).Decode(&standings); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var names []string
	for _, s := range standings {
		names = append(names, s.Profile.Name)
	}
	if strings.Join(names, ",") != "Bob,Alice,Carol" {
		t.Fatalf("unexpected order %v", names)
	}
	if standings[0].Position != 1 || standings[0].Summary.WinRatePercent != 100 {
		t.Fatalf("unexpected top standing %+v", standings[0])
	}
}

func TestServiceListProfiles(t *testing.T) {
	app, _, srv := newTestServer(t)
	app.FindOrCreate(context.Background(), "Alice")
	app.FindOrCreate(context.Background(), "Bob")

	resp := do(t, http.MethodGet, srv.URL+"/api/profiles", "")
	var users []models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(users))
	}
}
