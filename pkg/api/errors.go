package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

// writeTodoError maps a todo service error onto a response. A missing todo
// and a denied one produce byte-identical responses; the service logs which
// one it was.
func writeTodoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, todos.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, "authentication required")
	case errors.Is(err, todos.ErrForbidden), errors.Is(err, todos.ErrNotFound):
		httputil.WriteForbidden(w, todos.ErrForbidden.Error())
	case errors.Is(err, todos.ErrInvalidInput):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, todos.ErrConflict):
		httputil.WriteConflict(w, todos.ErrConflict.Error())
	default:
		observability.FromContext(r.Context()).WithError(err).Error("todo request failed")
		httputil.WriteInternalError(w)
	}
}
