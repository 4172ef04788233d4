package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/contextkeys"
	"github.com/platinummonkey/taskboard/pkg/storage/storagetest"
)

func newTestLogger(t *testing.T, now time.Time) *DBLogger {
	t.Helper()
	logger, err := NewDBLogger(storagetest.NewSQLiteDB(t))
	require.NoError(t, err)
	logger.now = func() time.Time { return now }
	return logger
}

func TestNewDBLogger_RequiresDB(t *testing.T) {
	_, err := NewDBLogger(nil)
	assert.Error(t, err)
}

func TestDBLogger_LogFillsDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	logger := newTestLogger(t, now)
	ctx := contextkeys.WithRequestID(context.Background(), "req-1")

	event := &Event{EventType: EventTypeTodoCreate, UserID: "u1", UserRole: "user", ResourceID: "t1"}
	require.NoError(t, logger.Log(ctx, event))

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventStatusSuccess, event.Status)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, now.Truncate(time.Microsecond), event.Timestamp)

	events, err := logger.Search(context.Background(), SearchFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, *event, *events[0])
}

func TestDBLogger_Search(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger := newTestLogger(t, base)
	ctx := context.Background()

	seed := []*Event{
		{EventType: EventTypeTodoCreate, UserID: "u1", ResourceID: "t1", Timestamp: base.Add(-3 * time.Hour)},
		{EventType: EventTypeAccessDenied, Status: EventStatusDenied, UserID: "u2", ResourceID: "t1", Reason: "not_owner", Timestamp: base.Add(-2 * time.Hour)},
		{EventType: EventTypeTodoDelete, UserID: "u1", ResourceID: "t1", Timestamp: base.Add(-1 * time.Hour)},
		{EventType: EventTypeRoleChange, ResourceID: "u2@example.com", Message: "manager", Timestamp: base},
	}
	for _, e := range seed {
		require.NoError(t, logger.Log(ctx, e))
	}

	tests := []struct {
		name   string
		filter SearchFilter
		want   []EventType
	}{
		{"all newest first", SearchFilter{}, []EventType{EventTypeRoleChange, EventTypeTodoDelete, EventTypeAccessDenied, EventTypeTodoCreate}},
		{"by user", SearchFilter{UserID: "u1"}, []EventType{EventTypeTodoDelete, EventTypeTodoCreate}},
		{"by status", SearchFilter{Status: EventStatusDenied}, []EventType{EventTypeAccessDenied}},
		{"by types", SearchFilter{EventTypes: []EventType{EventTypeTodoCreate, EventTypeRoleChange}}, []EventType{EventTypeRoleChange, EventTypeTodoCreate}},
		{"since", SearchFilter{Since: base.Add(-90 * time.Minute)}, []EventType{EventTypeRoleChange, EventTypeTodoDelete}},
		{"resource and limit", SearchFilter{ResourceID: "t1", Limit: 1}, []EventType{EventTypeTodoDelete}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := logger.Search(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]EventType, len(events))
			for i, e := range events {
				got[i] = e.EventType
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDBLogger_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger := newTestLogger(t, now)
	ctx := context.Background()

	require.NoError(t, logger.Log(ctx, &Event{EventType: EventTypeTodoCreate, Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, logger.Log(ctx, &Event{EventType: EventTypeTodoUpdate, Timestamp: now.Add(-time.Hour)}))

	removed, err := logger.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	events, err := logger.Search(ctx, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeTodoUpdate, events[0].EventType)

	// zero retention falls back to the default window
	removed, err = logger.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDBLogger_DatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger, err := NewDBLogger(db)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_events").WillReturnError(errors.New("disk full"))
	err = logger.Log(context.Background(), &Event{EventType: EventTypeTodoCreate})
	assert.ErrorContains(t, err, "failed to insert audit event")

	mock.ExpectQuery("SELECT .* FROM audit_events WHERE user_id = \\$1 ORDER BY occurred_at DESC, id LIMIT \\$2").
		WithArgs("u1", maxSearchLimit).
		WillReturnError(errors.New("connection reset"))
	_, err = logger.Search(context.Background(), SearchFilter{UserID: "u1", Limit: 5000})
	assert.ErrorContains(t, err, "failed to search audit events")

	mock.ExpectExec("DELETE FROM audit_events").WillReturnError(errors.New("locked"))
	_, err = logger.Prune(context.Background(), time.Hour)
	assert.ErrorContains(t, err, "failed to prune audit events")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteNDJSON(t *testing.T) {
	events := []*Event{
		{ID: "1", EventType: EventTypeTodoCreate, Status: EventStatusSuccess},
		{ID: "2", EventType: EventTypeAccessDenied, Status: EventStatusDenied, Reason: "not_draft"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, events))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "not_draft", decoded.Reason)
	assert.Equal(t, EventTypeAccessDenied, decoded.EventType)
}

func TestNopLogger(t *testing.T) {
	assert.NoError(t, NopLogger{}.Log(context.Background(), &Event{}))
}
