package model

import "time"

// UsageEventType enumerates the tracked user actions.
type UsageEventType string

const (
	EventLogin        UsageEventType = "login"
	EventQuery        UsageEventType = "query"
	EventFilterChange UsageEventType = "filter_change"
	EventAIGeneration UsageEventType = "ai_generation"
	EventExport       UsageEventType = "export"
)

// UsageEvent is one tracked action inside a session. Payload carries
// event-specific detail (category, brands, export format) as loose keys.
type UsageEvent struct {
	SessionID  string            `json:"session_id"`
	Type       UsageEventType    `json:"event_type"`
	Payload    map[string]string `json:"payload,omitempty"`
	DurationMS int64             `json:"duration_ms,omitempty"`
	At         time.Time         `json:"at"`
}

// UsageSession is one tracked user session.
type UsageSession struct {
	SessionID    string    `json:"session_id"`
	UserRole     string    `json:"user_role"`
	IPAddress    string    `json:"ip_address"`
	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`
}

// DailyUsage is one day of the usage report.
type DailyUsage struct {
	Day      string `json:"day"`
	Sessions int    `json:"sessions"`
	Events   int    `json:"events"`
}

// UsageSummary is the aggregated usage report for a date range.
type UsageSummary struct {
	TotalSessions    int            `json:"total_sessions"`
	TotalEvents      int            `json:"total_events"`
	EventsByType     map[string]int `json:"events_by_type"`
	RoleDistribution map[string]int `json:"role_distribution"`
	DailyUsage       []DailyUsage   `json:"daily_usage"`
}
