package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskboard/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records event. Missing ID, timestamp and request ID are filled in.
	Log(ctx context.Context, event *Event) error
}

// NopLogger discards every event
type NopLogger struct{}

// Log implements Logger
func (NopLogger) Log(context.Context, *Event) error { return nil }

// prepare fills the fields every stored event must carry
func prepare(ctx context.Context, event *Event, now time.Time) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	event.Timestamp = event.Timestamp.UTC().Truncate(time.Microsecond)
	if event.RequestID == "" {
		event.RequestID = contextkeys.GetRequestID(ctx)
	}
	if event.Status == "" {
		event.Status = EventStatusSuccess
	}
}
