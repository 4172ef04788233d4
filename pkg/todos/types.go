package todos

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/platinummonkey/taskboard/pkg/rbac"
)

// Status is the lifecycle state of a todo. It changes only through an explicit update.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status
func Statuses() []Status {
	return []Status{StatusDraft, StatusInProgress, StatusCompleted}
}

// Valid reports whether s is a recognized status
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus converts a client-supplied value to a Status
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, value)
	}
	return s, nil
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
)

// Todo is a task record owned by exactly one user. OwnerID and ID are set at
// creation and never change.
type Todo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Attributes returns the attributes the permission engine decides on
func (t *Todo) Attributes() rbac.Attributes {
	return rbac.Attributes{
		OwnerID: t.OwnerID,
		Draft:   t.Status == StatusDraft,
	}
}

// CreateInput carries the caller-supplied fields of a new todo. There is no
// owner or status field: both are always set by the service.
type CreateInput struct {
	Title       string
	Description string

	// IdempotencyKey, when set, makes a retried create return the todo the
	// first attempt created
	IdempotencyKey string
}

// Validate checks the input and returns it normalized
func (in CreateInput) Validate() (CreateInput, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return in, err
	}
	if err := validateDescription(in.Description); err != nil {
		return in, err
	}
	if len(in.IdempotencyKey) > 255 {
		return in, fmt.Errorf("%w: idempotency key is too long", ErrInvalidInput)
	}
	in.Title = title
	return in, nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Validate rejects malformed values before any store access
func (p Patch) Validate() error {
	if p.Title != nil {
		if _, err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
	}
	return nil
}

// Apply returns a copy of t with the patch applied, the version bumped and
// UpdatedAt set to now. ID and OwnerID are copied unchanged.
func (p Patch) Apply(t Todo, now time.Time) Todo {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.Version++
	t.UpdatedAt = now
	return t
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}
	return title, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLength)
	}
	return nil
}
