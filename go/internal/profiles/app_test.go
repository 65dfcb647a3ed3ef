package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
)

var start = time.Date(2025, 3, 14, 7, 45, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *kvstore.Memory, *clockwork.FakeClock) {
	t.Helper()
	store := kvstore.NewMemory()
	clock := clockwork.NewFakeClockAt(start)
	return NewApp(NewRepository(store), WithClock(clock)), store, clock
}

func TestFindOrCreateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)

	alice, err := app.FindOrCreate(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	again, err := app.FindOrCreate(ctx, "  alice ")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if again.ID != alice.ID {
		t.Fatalf("expected same profile id, got %s and %s", alice.ID, again.ID)
	}
	if again.Name != "Alice" {
		t.Fatalf("expected the original name to be kept, got %q", again.Name)
	}

	users, err := app.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 stored profile, got %d", len(users))
	}
}

func TestFindOrCreateNewProfileDefaults(t *testing.T) {
	app, _, _ := newTestApp(t)

	p, err := app.FindOrCreate(context.Background(), "Bob")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected an id")
	}
	if !p.JoinedAt.Equal(start) {
		t.Errorf("expected joinedAt %v, got %v", start, p.JoinedAt)
	}
	if p.Stats.TotalBets != 0 || p.Stats.TotalWins != 0 || p.Stats.TotalDiffMinutes != 0 || len(p.Stats.History) != 0 {
		t.Errorf("expected zeroed stats, got %+v", p.Stats)
	}
	if p.NotificationsEnabled {
		t.Error("expected notifications to start disabled")
	}
}

func TestFindOrCreateRejectsInvalidNames(t *testing.T) {
	app, store, _ := newTestApp(t)
	for _, name := range []string{"", "   ", "\t\n", "bad\x00name", string(make([]rune, MaxNameLength+1))} {
		if _, err := app.FindOrCreate(context.Background(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("FindOrCreate(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if _, err := store.Get(context.Background(), UsersKey); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected nothing persisted, got %v", err)
	}
}

func TestRecordOutcomeOnce(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")

	updated, err := app.RecordOutcome(ctx, OutcomeRequest{
		UserID:           p.ID,
		GuessedTime:      "08:10",
		ActualTime:       "08:15",
		DeviationMinutes: 5,
		Won:              true,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	s := updated.Stats
	if s.TotalBets != 1 || s.TotalWins != 1 || s.TotalDiffMinutes != 5 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if len(s.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(s.History))
	}
	h := s.History[0]
	if !h.Won || h.GuessedTime != "08:10" || h.ActualTime != "08:15" || h.Diff != 5 || !h.Date.Equal(start) {
		t.Fatalf("unexpected history entry %+v", h)
	}

	stored, err := app.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Stats.TotalBets != 1 {
		t.Fatalf("expected persisted stats, got %+v", stored.Stats)
	}
}

func TestRecordOutcomeLoss(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")

	updated, err := app.RecordOutcome(ctx, OutcomeRequest{UserID: p.ID, GuessedTime: "08:30", ActualTime: "08:15", DeviationMinutes: 15})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if updated.Stats.TotalBets != 1 || updated.Stats.TotalWins != 0 || updated.Stats.TotalDiffMinutes != 15 {
		t.Fatalf("unexpected stats %+v", updated.Stats)
	}
}

func TestRecordOutcomeCapsHistory(t *testing.T) {
	ctx := context.Background()
	app, _, clock := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")

	const rounds = DefaultHistoryCap + 1
	for i := 0; i < rounds; i++ {
		clock.Advance(24 * time.Hour)
		_, err := app.RecordOutcome(ctx, OutcomeRequest{
			UserID:           p.ID,
			GuessedTime:      "08:00",
			ActualTime:       fmt.Sprintf("08:%02d", i%60),
			DeviationMinutes: i,
		})
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	got, err := app.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	h := got.Stats.History
	if len(h) != DefaultHistoryCap {
		t.Fatalf("expected history capped at %d, got %d", DefaultHistoryCap, len(h))
	}
	if h[0].Diff != rounds-1 {
		t.Fatalf("expected most recent entry first (diff %d), got %d", rounds-1, h[0].Diff)
	}
	if h[len(h)-1].Diff != 1 {
		t.Fatalf("expected oldest entry (diff 0) evicted, last retained diff = %d", h[len(h)-1].Diff)
	}
	for i := 1; i < len(h); i++ {
		if !h[i-1].Date.After(h[i].Date) {
			t.Fatalf("history not most-recent-first at %d", i)
		}
	}
	if got.Stats.TotalBets != rounds {
		t.Fatalf("expected %d total bets, got %d", rounds, got.Stats.TotalBets)
	}
}

func TestRecordOutcomeCustomCap(t *testing.T) {
	ctx := context.Background()
	app := NewApp(NewRepository(kvstore.NewMemory()), WithHistoryCap(2))
	p, _ := app.FindOrCreate(ctx, "Alice")
	for i := 0; i < 3; i++ {
		if _, err := app.RecordOutcome(ctx, OutcomeRequest{UserID: p.ID, GuessedTime: "08:00", ActualTime: "08:00", DeviationMinutes: i}); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
	got, _ := app.GetByID(ctx, p.ID)
	if len(got.Stats.History) != 2 || got.Stats.History[0].Diff != 2 || got.Stats.History[1].Diff != 1 {
		t.Fatalf("unexpected history %+v", got.Stats.History)
	}
}

func TestRecordOutcomeUnknownUserLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	app, store, _ := newTestApp(t)
	if _, err := app.FindOrCreate(ctx, "Alice"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	before, _ := store.Get(ctx, UsersKey)

	_, err := app.RecordOutcome(ctx, OutcomeRequest{UserID: uuid.New(), GuessedTime: "08:00", ActualTime: "08:05", DeviationMinutes: 5, Won: true})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	after, _ := store.Get(ctx, UsersKey)
	if string(before) != string(after) {
		t.Fatalf("expected collection unchanged\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestRecordOutcomeRejectsNegativeDeviation(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")
	if _, err := app.RecordOutcome(ctx, OutcomeRequest{UserID: p.ID, DeviationMinutes: -1}); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestSetNotificationPreference(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")

	updated, err := app.SetNotificationPreference(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !updated.NotificationsEnabled {
		t.Fatal("expected notifications enabled")
	}

	if _, changed, err := app.UpdateNotificationPreference(ctx, p.ID, true); err != nil || changed {
		t.Fatalf("expected unchanged flag, changed=%v err=%v", changed, err)
	}
	if _, changed, err := app.UpdateNotificationPreference(ctx, p.ID, false); err != nil || !changed {
		t.Fatalf("expected changed flag, changed=%v err=%v", changed, err)
	}

	if _, err := app.SetNotificationPreference(ctx, uuid.New(), true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)
	if _, err := app.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	app, store, _ := newTestApp(t)

	if _, err := app.CurrentUser(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before login, got %v", err)
	}

	p, err := app.Login(ctx, "Alice")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	current, err := app.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user failed: %v", err)
	}
	if current.ID != p.ID {
		t.Fatalf("expected current user %s, got %s", p.ID, current.ID)
	}

	raw, _ := store.Get(ctx, CurrentUserIDKey)
	var stored string
	if err := json.Unmarshal(raw, &stored); err != nil || stored != p.ID.String() {
		t.Fatalf("expected persisted pointer %s, got %s (%v)", p.ID, raw, err)
	}

	if err := app.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := app.CurrentUser(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
	if _, err := app.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("expected profile to survive logout, got %v", err)
	}
}

func TestCurrentUserDanglingPointer(t *testing.T) {
	ctx := context.Background()
	app, store, _ := newTestApp(t)
	if err := store.Put(ctx, CurrentUserIDKey, []byte(`"`+uuid.NewString()+`"`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := app.CurrentUser(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestPersistedLayout(t *testing.T) {
	ctx := context.Background()
	app, store, _ := newTestApp(t)
	p, _ := app.FindOrCreate(ctx, "Alice")
	if _, err := app.RecordOutcome(ctx, OutcomeRequest{UserID: p.ID, GuessedTime: "08:10", ActualTime: "08:15", DeviationMinutes: 5, Won: true}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	raw, err := store.Get(ctx, UsersKey)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var users []map[string]any
	if err := json.Unmarshal(raw, &users); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for _, key := range []string{"id", "name", "joinedAt", "stats", "notificationsEnabled"} {
		if _, ok := users[0][key]; !ok {
			t.Errorf("missing field %q in %s", key, raw)
		}
	}
	stats := users[0]["stats"].(map[string]any)
	for _, key := range []string{"totalBets", "totalWins", "totalDiffMinutes", "history"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("missing stats field %q in %s", key, raw)
		}
	}
	entry := stats["history"].([]any)[0].(map[string]any)
	for _, key := range []string{"date", "guessedTime", "actualTime", "diff", "won"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("missing history field %q in %s", key, raw)
		}
	}
}
