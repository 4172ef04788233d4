package api

import (
	"time"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/rbac"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

// IdempotencyKeyHeader makes a retried create return the original todo
const IdempotencyKeyHeader = "Idempotency-Key"

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

type meResponse struct {
	User      *auth.User `json:"user"`
	CanCreate bool       `json:"can_create"`
}

// createTodoRequest has no owner or status: both are set by the service and
// any such fields in the body are ignored
type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type patchTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (req patchTodoRequest) patch() todos.Patch {
	p := todos.Patch{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		status := todos.Status(*req.Status)
		p.Status = &status
	}
	return p
}

// todoResponse is a todo plus the controls its viewer may use
type todoResponse struct {
	*todos.Todo
	Capabilities rbac.Capabilities `json:"capabilities"`
}

type listTodosResponse struct {
	Todos []todoResponse `json:"todos"`
}

func newTodoResponse(user *auth.User, todo *todos.Todo) todoResponse {
	return todoResponse{
		Todo:         todo,
		Capabilities: rbac.CapabilitiesFor(user, todo.Attributes()),
	}
}
