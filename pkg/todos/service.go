package todos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/rbac"
)

// ListNotifier is told when list views may be stale. Notification is a
// best-effort hint and never affects the result of an operation.
type ListNotifier interface {
	NotifyListStale(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) NotifyListStale(context.Context) {}

// Service implements the todo operations. Every operation resolves the
// caller, asks the permission engine, and touches the store only when allowed.
type Service struct {
	store    Store
	identity auth.IdentityResolver
	notifier ListNotifier
	metrics  *observability.Metrics
	audit    audit.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a todo service. notifier and metrics may be nil.
func NewService(store Store, identity auth.IdentityResolver, notifier ListNotifier, metrics *observability.Metrics) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		store:    store,
		identity: identity,
		notifier: notifier,
		metrics:  metrics,
		audit:    audit.NopLogger{},
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:    uuid.NewString,
	}
}

// SetAuditLogger records denials and mutations to logger. A nil logger
// turns auditing off.
func (s *Service) SetAuditLogger(logger audit.Logger) {
	if logger == nil {
		logger = audit.NopLogger{}
	}
	s.audit = logger
}

// List returns the todos the caller may see, oldest first
func (s *Service) List(ctx context.Context) (todos []*Todo, err error) {
	ctx, span := observability.Tracer().Start(ctx, "todos.List")
	defer func() { endSpan(span, err) }()

	user, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	filter := rbac.BuildListFilter(user)
	span.SetAttributes(attribute.String("todos.filter", filter.String()))
	s.metrics.RecordDecision(string(rbac.ActionView), string(user.Role), !filter.DenyAll())
	if filter.DenyAll() {
		s.logDenied(ctx, user, rbac.ActionView, "", rbac.ReasonUnknownRole)
		return []*Todo{}, nil
	}

	return s.store.Query(ctx, filter)
}

// Get returns one todo the caller may view
func (s *Service) Get(ctx context.Context, id string) (todo *Todo, err error) {
	ctx, span := observability.Tracer().Start(ctx, "todos.Get", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	user, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.fetch(ctx, user, rbac.ActionView, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, user, rbac.ActionView, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Create stores a new draft todo owned by the caller
func (s *Service) Create(ctx context.Context, in CreateInput) (todo *Todo, err error) {
	ctx, span := observability.Tracer().Start(ctx, "todos.Create")
	defer func() { endSpan(span, err) }()

	user, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, user, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}

	in, err = in.Validate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	todo = &Todo{
		ID:          s.newID(),
		OwnerID:     user.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := s.store.Insert(ctx, todo, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if stored.ID != todo.ID {
		span.SetAttributes(attribute.Bool("todo.idempotent_replay", true))
		return stored, nil
	}

	s.notifier.NotifyListStale(ctx)
	s.record(ctx, user, audit.EventTypeTodoCreate, stored.ID, "")
	observability.FromContext(ctx).WithField("todo_id", stored.ID).Info("todo created")
	return stored, nil
}

// Update applies patch to a todo the caller may update. The decision and the
// write use the same fetched snapshot.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (todo *Todo, err error) {
	ctx, span := observability.Tracer().Start(ctx, "todos.Update", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	user, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.fetch(ctx, user, rbac.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, user, rbac.ActionUpdate, current); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	next := patch.Apply(*current, s.now())
	if err := s.store.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}

	s.notifier.NotifyListStale(ctx)
	s.record(ctx, user, audit.EventTypeTodoUpdate, next.ID, "status="+string(next.Status))
	observability.FromContext(ctx).WithFields(map[string]interface{}{
		"todo_id": next.ID,
		"status":  string(next.Status),
	}).Info("todo updated")
	return &next, nil
}

// Delete permanently removes a todo the caller may delete
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "todos.Delete", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	user, err := s.resolve(ctx)
	if err != nil {
		return err
	}

	current, err := s.fetch(ctx, user, rbac.ActionDelete, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, user, rbac.ActionDelete, current); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, current.ID, current.Version); err != nil {
		return err
	}

	s.notifier.NotifyListStale(ctx)
	s.record(ctx, user, audit.EventTypeTodoDelete, current.ID, "")
	observability.FromContext(ctx).WithField("todo_id", current.ID).Info("todo deleted")
	return nil
}

func (s *Service) resolve(ctx context.Context) (*auth.User, error) {
	user, err := s.identity.ResolveCurrentUser(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// fetch loads the snapshot a decision is made on. A missing row is logged
// like a denial so that it stays distinguishable internally.
func (s *Service) fetch(ctx context.Context, user *auth.User, action rbac.Action, id string) (*Todo, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	todo, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logDenied(ctx, user, action, id, "not_found")
		return nil, ErrNotFound
	}
	return todo, err
}

func (s *Service) authorize(ctx context.Context, user *auth.User, action rbac.Action, todo *Todo) error {
	var attrs *rbac.Attributes
	id := ""
	if todo != nil {
		a := todo.Attributes()
		attrs = &a
		id = todo.ID
	}

	decision := rbac.Decide(user, action, attrs)
	s.metrics.RecordDecision(string(action), string(user.Role), decision.Allowed)
	if !decision.Allowed {
		s.logDenied(ctx, user, action, id, decision.Reason)
		return ErrForbidden
	}
	return nil
}

func (s *Service) logDenied(ctx context.Context, user *auth.User, action rbac.Action, id string, reason rbac.Reason) {
	fields := map[string]interface{}{
		"action": string(action),
		"role":   string(user.Role),
		"reason": string(reason),
	}
	if id != "" {
		fields["todo_id"] = id
	}
	observability.FromContext(ctx).WithFields(fields).Warn("todo operation denied")

	event := &audit.Event{
		EventType:  audit.EventTypeAccessDenied,
		Status:     audit.EventStatusDenied,
		UserID:     user.ID,
		UserRole:   string(user.Role),
		ResourceID: id,
		Reason:     string(reason),
		Message:    string(action),
	}
	if err := s.audit.Log(ctx, event); err != nil {
		observability.FromContext(ctx).WithError(err).Error("failed to record audit event")
	}
}

// record writes a mutation event. A failed write is logged and does not
// undo the mutation.
func (s *Service) record(ctx context.Context, user *auth.User, eventType audit.EventType, id, message string) {
	event := &audit.Event{
		EventType:  eventType,
		UserID:     user.ID,
		UserRole:   string(user.Role),
		ResourceID: id,
		Message:    message,
	}
	if err := s.audit.Log(ctx, event); err != nil {
		observability.FromContext(ctx).WithError(err).Error("failed to record audit event")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
