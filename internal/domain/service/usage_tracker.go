package service

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// UsageTracker records usage events in the local store and forwards them to
// the optional sink. All logging is best-effort: tracking failures are
// logged, never surfaced to the request that produced them.
type UsageTracker struct {
	store repository.UsageStore
	sink  repository.UsageSink // optional
}

func NewUsageTracker(store repository.UsageStore, sink repository.UsageSink) *UsageTracker {
	return &UsageTracker{store: store, sink: sink}
}

// StartSession opens a tracked session and logs the login event.
func (t *UsageTracker) StartSession(ctx context.Context, userRole, ipAddress string) string {
	if t == nil || t.store == nil {
		return ""
	}
	sessionID, err := t.store.StartSession(ctx, userRole, ipAddress)
	if err != nil {
		log.Printf("tracking: start session failed: %v", err)
		return ""
	}
	t.record(ctx, model.UsageEvent{
		SessionID: sessionID,
		Type:      model.EventLogin,
		Payload:   map[string]string{"role": userRole},
	})
	return sessionID
}

// LogQuery records one executed analysis with its settings and duration.
func (t *UsageTracker) LogQuery(ctx context.Context, sessionID string, req model.AnalysisRequest, duration time.Duration) {
	t.record(ctx, model.UsageEvent{
		SessionID:  sessionID,
		Type:       model.EventQuery,
		DurationMS: duration.Milliseconds(),
		Payload: map[string]string{
			"dimension": string(req.Query.Dimension),
			"category":  req.Query.Category,
			"brands":    strings.Join(req.Query.Brands, ","),
			"threshold": strconv.FormatFloat(req.PrimaryThreshold, 'f', -1, 64),
		},
	})
}

// LogExport records one export download.
func (t *UsageTracker) LogExport(ctx context.Context, sessionID, format string) {
	t.record(ctx, model.UsageEvent{
		SessionID: sessionID,
		Type:      model.EventExport,
		Payload:   map[string]string{"format": format},
	})
}

// LogNarration records one AI insight generation.
func (t *UsageTracker) LogNarration(ctx context.Context, sessionID, category string) {
	t.record(ctx, model.UsageEvent{
		SessionID: sessionID,
		Type:      model.EventAIGeneration,
		Payload:   map[string]string{"category": category},
	})
}

// LogFilterChange records a sidebar filter adjustment.
func (t *UsageTracker) LogFilterChange(ctx context.Context, sessionID, filterType, value string) {
	t.record(ctx, model.UsageEvent{
		SessionID: sessionID,
		Type:      model.EventFilterChange,
		Payload:   map[string]string{"filter": filterType, "value": value},
	})
}

// Summary proxies the usage report from the store.
func (t *UsageTracker) Summary(ctx context.Context, from, to time.Time) (*model.UsageSummary, error) {
	if t == nil || t.store == nil {
		return &model.UsageSummary{}, nil
	}
	return t.store.Summary(ctx, from, to)
}

func (t *UsageTracker) record(ctx context.Context, event model.UsageEvent) {
	if t == nil || t.store == nil || event.SessionID == "" {
		return
	}
	event.At = time.Now().UTC()
	if err := t.store.LogEvent(ctx, event); err != nil {
		log.Printf("tracking: log %s event failed: %v", event.Type, err)
	}
	if err := t.store.Touch(ctx, event.SessionID); err != nil {
		log.Printf("tracking: touch session failed: %v", err)
	}
	if t.sink != nil {
		if err := t.sink.Publish(ctx, event); err != nil {
			log.Printf("tracking: publish %s event failed: %v", event.Type, err)
		}
	}
}
