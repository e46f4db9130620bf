// Package repository defines the repository interfaces used by domain
// services. Domain logic depends on these interfaces; infrastructure
// packages provide the concrete implementations.
package repository

import (
	"context"
	"time"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// PeriodFetcher executes the warehouse query behind one analysis run and
// returns the purchase aggregates for the before and after windows. Row
// order carries no meaning; the classifier does not depend on it.
type PeriodFetcher interface {
	// FetchPeriods returns the (entity, customer) purchase aggregates for
	// both date windows of the spec.
	FetchPeriods(ctx context.Context, spec model.QuerySpec) (before, after []model.PeriodRecord, err error)

	// Categories lists the distinct category names available for filtering.
	Categories(ctx context.Context) ([]string, error)

	// BrandsByCategory lists the distinct brands inside one category.
	BrandsByCategory(ctx context.Context, category string) ([]string, error)
}

// ResultCache stores finished analysis results keyed by request fingerprint.
// Implementations should prioritize speed; a failed lookup degrades to a
// recompute, never to a failed request.
type ResultCache interface {
	// SaveResult stores a result under the given key with the cache's TTL.
	SaveResult(ctx context.Context, key string, result *model.AnalysisResult) error

	// GetResult returns the cached result for key, or (nil, nil) on a miss.
	GetResult(ctx context.Context, key string) (*model.AnalysisResult, error)
}

// UsageStore records sessions and usage events durably and answers the
// usage-analytics queries of the admin view.
type UsageStore interface {
	StartSession(ctx context.Context, userRole, ipAddress string) (string, error)
	Touch(ctx context.Context, sessionID string) error
	LogEvent(ctx context.Context, event model.UsageEvent) error
	Summary(ctx context.Context, from, to time.Time) (*model.UsageSummary, error)
	RecentSessions(ctx context.Context, limit int) ([]model.UsageSession, error)
	Close() error
}

// UsageSink forwards usage events to an external stream for central
// analytics. Sinks are best-effort; a publish failure must never fail the
// request that produced the event.
type UsageSink interface {
	Publish(ctx context.Context, event model.UsageEvent) error
	Close() error
}
