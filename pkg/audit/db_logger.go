package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 1000

	eventColumns = `id, occurred_at, event_type, status, user_id, user_role, resource_id, reason, request_id, message`
)

// DBLogger stores audit events in the audit_events table
type DBLogger struct {
	db  *sql.DB
	now func() time.Time
}

// NewDBLogger creates a database-backed audit logger. The table is created by
// the storage migrations.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db, now: time.Now}, nil
}

// Log logs an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	prepare(ctx, event, l.now())

	query := `INSERT INTO audit_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := l.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, string(event.EventType), string(event.Status),
		event.UserID, event.UserRole, event.ResourceID,
		event.Reason, event.RequestID, event.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Search returns matching events, newest first
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Event, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.ResourceID != "" {
		add("resource_id = $%d", filter.ResourceID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		add("occurred_at >= $%d", filter.Since.UTC())
	}
	if len(filter.EventTypes) > 0 {
		placeholders := make([]string, len(filter.EventTypes))
		for i, t := range filter.EventTypes {
			args = append(args, string(t))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	query := `SELECT ` + eventColumns + ` FROM audit_events`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY occurred_at DESC, id LIMIT $%d`, len(args))

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			event             Event
			eventType, status string
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &eventType, &status,
			&event.UserID, &event.UserRole, &event.ResourceID,
			&event.Reason, &event.RequestID, &event.Message); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.EventType = EventType(eventType)
		event.Status = EventStatus(status)
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, &event)
	}
	return events, rows.Err()
}

// Prune deletes events older than retention and reports how many were removed
func (l *DBLogger) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	cutoff := l.now().UTC().Add(-retention)

	result, err := l.db.ExecContext(ctx, `DELETE FROM audit_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}
	return result.RowsAffected()
}
