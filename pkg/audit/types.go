package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authorization events
	EventTypeAccessDenied EventType = "authz.access_denied"

	// Data mutation events
	EventTypeTodoCreate EventType = "data.todo_create"
	EventTypeTodoUpdate EventType = "data.todo_update"
	EventTypeTodoDelete EventType = "data.todo_delete"

	// Admin events
	EventTypeRoleChange EventType = "admin.role_change"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusDenied  EventStatus = "denied"
)

// DefaultRetention is how long events are kept when nothing else is configured
const DefaultRetention = 90 * 24 * time.Hour

// Event is a single audit log entry
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID   string `json:"user_id,omitempty"`
	UserRole string `json:"user_role,omitempty"`

	// ResourceID is the todo id, or the account email for admin events
	ResourceID string `json:"resource_id,omitempty"`

	// Reason is the internal denial reason. It is never shown to the caller.
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SearchFilter narrows a search. Zero values match everything.
type SearchFilter struct {
	UserID     string
	ResourceID string
	EventTypes []EventType
	Status     EventStatus
	Since      time.Time

	// Limit caps the result; newest events come first
	Limit int
}
