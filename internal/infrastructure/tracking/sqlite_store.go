// Package tracking records usage sessions and events in a local SQLite
// database and answers the admin usage-analytics queries.
package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// SQLiteStore implements the UsageStore interface on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the tracking database at
// path. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tracking schema: %w", err)
	}
	return s, nil
}

var _ repository.UsageStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT UNIQUE,
			user_role TEXT,
			ip_address TEXT,
			start_time TIMESTAMP,
			last_activity TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			timestamp TIMESTAMP,
			event_type TEXT,
			event_data TEXT,
			duration_ms INTEGER,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);
	`)
	return err
}

// StartSession creates a new tracked session and returns its id.
func (s *SQLiteStore) StartSession(ctx context.Context, userRole, ipAddress string) (string, error) {
	sessionID := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_role, ip_address, start_time, last_activity)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, userRole, ipAddress, now, now)
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// Touch bumps the session's last-activity timestamp.
func (s *SQLiteStore) Touch(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET last_activity = ? WHERE session_id = ?
	`, time.Now().UTC(), sessionID)
	return err
}

// LogEvent appends one usage event.
func (s *SQLiteStore) LogEvent(ctx context.Context, event model.UsageEvent) error {
	payload := "{}"
	if len(event.Payload) > 0 {
		raw, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}
		payload = string(raw)
	}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_id, timestamp, event_type, event_data, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`, event.SessionID, at, string(event.Type), payload, event.DurationMS)
	return err
}

// Summary aggregates sessions and events between from and to (inclusive).
func (s *SQLiteStore) Summary(ctx context.Context, from, to time.Time) (*model.UsageSummary, error) {
	summary := &model.UsageSummary{
		EventsByType:     make(map[string]int),
		RoleDistribution: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE start_time BETWEEN ? AND ?
	`, from, to).Scan(&summary.TotalSessions)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE timestamp BETWEEN ? AND ?
	`, from, to).Scan(&summary.TotalEvents)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM events
		WHERE timestamp BETWEEN ? AND ?
		GROUP BY event_type
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		summary.EventsByType[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roleRows, err := s.db.QueryContext(ctx, `
		SELECT user_role, COUNT(*) FROM sessions
		WHERE start_time BETWEEN ? AND ?
		GROUP BY user_role
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var role string
		var count int
		if err := roleRows.Scan(&role, &count); err != nil {
			return nil, err
		}
		summary.RoleDistribution[role] = count
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := s.db.QueryContext(ctx, `
		SELECT date(e.timestamp) AS day,
		       COUNT(DISTINCT e.session_id),
		       COUNT(*)
		FROM events e
		WHERE e.timestamp BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var day model.DailyUsage
		if err := dayRows.Scan(&day.Day, &day.Sessions, &day.Events); err != nil {
			return nil, err
		}
		summary.DailyUsage = append(summary.DailyUsage, day)
	}
	if err := dayRows.Err(); err != nil {
		return nil, err
	}

	return summary, nil
}

// RecentSessions returns the newest sessions, most recent first.
func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]model.UsageSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_role, ip_address, start_time, last_activity
		FROM sessions
		ORDER BY start_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.UsageSession
	for rows.Next() {
		var sess model.UsageSession
		if err := rows.Scan(&sess.SessionID, &sess.UserRole, &sess.IPAddress, &sess.StartTime, &sess.LastActivity); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
