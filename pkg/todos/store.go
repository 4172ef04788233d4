package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/rbac"
)

// Store persists todos. Writes are conditional on the version of the
// snapshot the caller decided on.
type Store interface {
	// Query returns the rows admitted by filter ordered by creation. The
	// filter must be applied by the query itself.
	Query(ctx context.Context, filter rbac.ListFilter) ([]*Todo, error)
	// GetByID returns ErrNotFound when no row matches
	GetByID(ctx context.Context, id string) (*Todo, error)
	// Insert stores todo. With a non-empty idempotencyKey an earlier row with
	// the same owner and key is returned instead of inserting.
	Insert(ctx context.Context, todo *Todo, idempotencyKey string) (*Todo, error)
	// Update overwrites the mutable fields of the row at expectedVersion
	Update(ctx context.Context, todo *Todo, expectedVersion int64) error
	// Delete removes the row at expectedVersion
	Delete(ctx context.Context, id string, expectedVersion int64) error
}

// SQLStore is the Store over database/sql. Queries use $N placeholders and
// run unchanged on PostgreSQL and SQLite.
type SQLStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewSQLStore creates a store. metrics may be nil.
func NewSQLStore(db *sql.DB, metrics *observability.Metrics) *SQLStore {
	return &SQLStore{db: db, metrics: metrics}
}

const todoColumns = `id, owner_id, title, description, status, version, created_at, updated_at`

// Query returns the todos admitted by filter
func (s *SQLStore) Query(ctx context.Context, filter rbac.ListFilter) (todos []*Todo, err error) {
	if filter.DenyAll() {
		return []*Todo{}, nil
	}
	defer s.observe("query", time.Now(), &err)

	query := `SELECT ` + todoColumns + ` FROM todos`
	var args []interface{}
	if !filter.Unrestricted() {
		query += ` WHERE owner_id = $1`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos = []*Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// GetByID retrieves a todo by ID
func (s *SQLStore) GetByID(ctx context.Context, id string) (todo *Todo, err error) {
	defer s.observe("get", time.Now(), &err)
	return s.getByID(ctx, id)
}

func (s *SQLStore) getByID(ctx context.Context, id string) (*Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return todo, err
}

// Insert stores a new todo
func (s *SQLStore) Insert(ctx context.Context, todo *Todo, idempotencyKey string) (stored *Todo, err error) {
	defer s.observe("insert", time.Now(), &err)

	var key interface{}
	if idempotencyKey != "" {
		key = idempotencyKey
	}

	query := `
		INSERT INTO todos (id, owner_id, title, description, status, version, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, idempotency_key) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		string(todo.Status),
		todo.Version,
		key,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if inserted == 1 || idempotencyKey == "" {
		return todo, nil
	}

	query = `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1 AND idempotency_key = $2`
	existing, err := scanTodo(s.db.QueryRowContext(ctx, query, todo.OwnerID, idempotencyKey))
	if errors.Is(err, sql.ErrNoRows) {
		// The original was deleted after the key was first used.
		return nil, fmt.Errorf("%w: idempotency key belongs to a deleted todo", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Update writes title, description, status, version and updated_at. The
// owner column is never written after insert.
func (s *SQLStore) Update(ctx context.Context, todo *Todo, expectedVersion int64) (err error) {
	defer s.observe("update", time.Now(), &err)

	query := `
		UPDATE todos
		SET title = $1, description = $2, status = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		string(todo.Status),
		todo.Version,
		todo.UpdatedAt,
		todo.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return s.checkApplied(ctx, result, todo.ID)
}

// Delete removes a todo
func (s *SQLStore) Delete(ctx context.Context, id string, expectedVersion int64) (err error) {
	defer s.observe("delete", time.Now(), &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return s.checkApplied(ctx, result, id)
}

// checkApplied turns a conditional write that matched no row into
// ErrNotFound when the row is gone and ErrConflict when it changed
func (s *SQLStore) checkApplied(ctx context.Context, result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := s.getByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// observe records the operation. Not-found and conflict are outcomes, not store failures.
func (s *SQLStore) observe(operation string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		err = nil
	}
	s.metrics.RecordStoreOperation(operation, time.Since(start), err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row scanner) (*Todo, error) {
	var todo Todo
	var status string
	err := row.Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Title,
		&todo.Description,
		&status,
		&todo.Version,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}
	todo.Status = Status(status)
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return &todo, nil
}
