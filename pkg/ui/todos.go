package ui

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/rbac"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

// todoRow is a todo with the controls its viewer may use
type todoRow struct {
	Todo         *todos.Todo
	Capabilities rbac.Capabilities
}

// TodosList handles GET /ui/todos
func (h *Handler) TodosList(w http.ResponseWriter, r *http.Request) {
	items, err := h.Todos.List(r.Context())
	if err != nil {
		h.renderTodoError(w, r, err)
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	rows := make([]todoRow, 0, len(items))
	for _, todo := range items {
		rows = append(rows, todoRow{Todo: todo, Capabilities: rbac.CapabilitiesFor(user, todo.Attributes())})
	}
	renderHTML(w, http.StatusOK, todosPage(user, rows, rbac.CanCreate(user), csrfField(r)))
}

// TodoCreate handles POST /ui/todos
func (h *Handler) TodoCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid input", "invalid form"))
		return
	}

	_, err := h.Todos.Create(r.Context(), todos.CreateInput{
		Title:          r.Form.Get("title"),
		Description:    r.Form.Get("description"),
		IdempotencyKey: strings.TrimSpace(r.Form.Get("idempotency_key")),
	})
	if err != nil {
		h.renderTodoError(w, r, err)
		return
	}
	http.Redirect(w, r, todosPath, http.StatusSeeOther)
}

// TodoStatus handles POST /ui/todos/{id}/status
func (h *Handler) TodoStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid input", "invalid form"))
		return
	}

	status := todos.Status(r.Form.Get("status"))
	_, err := h.Todos.Update(r.Context(), mux.Vars(r)["id"], todos.Patch{Status: &status})
	if err != nil {
		h.renderTodoError(w, r, err)
		return
	}
	http.Redirect(w, r, todosPath, http.StatusSeeOther)
}

// TodoDelete handles POST /ui/todos/{id}/delete
func (h *Handler) TodoDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Todos.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.renderTodoError(w, r, err)
		return
	}
	http.Redirect(w, r, todosPath, http.StatusSeeOther)
}
