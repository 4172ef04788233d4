package todos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/storage/storagetest"
)

// seedUser inserts a user row directly, bypassing password hashing
func seedUser(t *testing.T, db *sql.DB, id string, role auth.Role) *auth.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &auth.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      id,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, auth.NewStore(db).CreateUser(context.Background(), user))
	return user
}

func newTestTodo(id, owner string, status Status, created time.Time) *Todo {
	return &Todo{
		ID:        id,
		OwnerID:   owner,
		Title:     "todo " + id,
		Status:    status,
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newTestStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	db := storagetest.NewSQLiteDB(t)
	return NewSQLStore(db, nil), db
}

// as returns a context carrying user the way the HTTP middleware does
func as(user *auth.User) context.Context {
	return auth.WithUser(context.Background(), user)
}

// recordingNotifier counts stale-list signals
type recordingNotifier struct {
	calls int
}

func (n *recordingNotifier) NotifyListStale(context.Context) {
	n.calls++
}
