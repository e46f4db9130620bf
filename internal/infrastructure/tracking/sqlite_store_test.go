package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/tracking"
)

func newTestStore(t *testing.T) *tracking.SQLiteStore {
	t.Helper()
	store, err := tracking.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sessionID, err := store.StartSession(ctx, "admin", "10.0.0.1")
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected a non-empty session id")
	}

	if err := store.Touch(ctx, sessionID); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	sessions, err := store.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("recent sessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].SessionID != sessionID || sessions[0].UserRole != "admin" {
		t.Errorf("unexpected session: %+v", sessions[0])
	}
}

func TestLogEventAndSummary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sessionID, err := store.StartSession(ctx, "user", "10.0.0.2")
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	events := []model.UsageEvent{
		{SessionID: sessionID, Type: model.EventQuery, Payload: map[string]string{"category": "DEO ROLL ON"}, DurationMS: 1200},
		{SessionID: sessionID, Type: model.EventQuery, DurationMS: 800},
		{SessionID: sessionID, Type: model.EventExport, Payload: map[string]string{"format": "xlsx"}},
	}
	for _, event := range events {
		if err := store.LogEvent(ctx, event); err != nil {
			t.Fatalf("log event failed: %v", err)
		}
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	summary, err := store.Summary(ctx, from, to)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if summary.TotalSessions != 1 {
		t.Errorf("expected 1 session, got %d", summary.TotalSessions)
	}
	if summary.TotalEvents != 3 {
		t.Errorf("expected 3 events, got %d", summary.TotalEvents)
	}
	if summary.EventsByType[string(model.EventQuery)] != 2 {
		t.Errorf("expected 2 query events, got %d", summary.EventsByType[string(model.EventQuery)])
	}
	if summary.EventsByType[string(model.EventExport)] != 1 {
		t.Errorf("expected 1 export event, got %d", summary.EventsByType[string(model.EventExport)])
	}
	if summary.RoleDistribution["user"] != 1 {
		t.Errorf("expected 1 user session, got %d", summary.RoleDistribution["user"])
	}
	if len(summary.DailyUsage) != 1 {
		t.Fatalf("expected 1 daily bucket, got %d", len(summary.DailyUsage))
	}
	if summary.DailyUsage[0].Events != 3 || summary.DailyUsage[0].Sessions != 1 {
		t.Errorf("unexpected daily bucket: %+v", summary.DailyUsage[0])
	}
}

func TestSummaryWindowExcludesOutsideEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sessionID, err := store.StartSession(ctx, "user", "10.0.0.3")
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	old := model.UsageEvent{
		SessionID: sessionID,
		Type:      model.EventQuery,
		At:        time.Now().UTC().AddDate(0, 0, -30),
	}
	if err := store.LogEvent(ctx, old); err != nil {
		t.Fatalf("log event failed: %v", err)
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	summary, err := store.Summary(ctx, from, to)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalEvents != 0 {
		t.Errorf("expected 0 events inside the window, got %d", summary.TotalEvents)
	}
}
