package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

// TodoHandlers exposes the todo service over JSON. Every authorization
// decision is made by the service.
type TodoHandlers struct {
	service *todos.Service
	authn   *middleware.AuthMiddleware
}

// NewTodoHandlers creates todo handlers. authn should run in optional mode
// so that the service reports missing identities itself.
func NewTodoHandlers(service *todos.Service, authn *middleware.AuthMiddleware) *TodoHandlers {
	return &TodoHandlers{service: service, authn: authn}
}

// RegisterRoutes registers todo routes
func (h *TodoHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/todos", h.wrap(h.list)).Methods(http.MethodGet)
	router.Handle("/todos", h.wrap(h.create)).Methods(http.MethodPost)
	router.Handle("/todos/{id}", h.wrap(h.get)).Methods(http.MethodGet)
	router.Handle("/todos/{id}", h.wrap(h.update)).Methods(http.MethodPatch)
	router.Handle("/todos/{id}", h.wrap(h.delete)).Methods(http.MethodDelete)
}

func (h *TodoHandlers) wrap(fn http.HandlerFunc) http.Handler {
	return h.authn.Handler(fn)
}

// list handles GET /todos
func (h *TodoHandlers) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeTodoError(w, r, err)
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	resp := listTodosResponse{Todos: make([]todoResponse, 0, len(items))}
	for _, todo := range items {
		resp.Todos = append(resp.Todos, newTodoResponse(user, todo))
	}
	httputil.WriteSuccess(w, resp)
}

// get handles GET /todos/{id}
func (h *TodoHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	todo, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeTodoError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	httputil.WriteSuccess(w, newTodoResponse(user, todo))
}

// create handles POST /todos
func (h *TodoHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	todo, err := h.service.Create(r.Context(), todos.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		writeTodoError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	httputil.WriteCreated(w, newTodoResponse(user, todo))
}

// update handles PATCH /todos/{id}
func (h *TodoHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req patchTodoRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	todo, err := h.service.Update(r.Context(), id, req.patch())
	if err != nil {
		writeTodoError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	httputil.WriteSuccess(w, newTodoResponse(user, todo))
}

// delete handles DELETE /todos/{id}
func (h *TodoHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeTodoError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
