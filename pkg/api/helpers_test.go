package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/storage/storagetest"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

const (
	testCookie   = "taskboard_session"
	testPassword = "correct-horse-battery"
)

type testEnv struct {
	handler http.Handler
	auth    *auth.Service
}

func newTestEnv(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()
	db := storagetest.NewSQLiteDB(t)

	authService := auth.NewService(auth.NewStore(db), time.Hour)
	todoService := todos.NewService(todos.NewSQLStore(db, nil), auth.ContextResolver{}, nil, nil)

	opts := Options{
		Auth:       authService,
		Todos:      todoService,
		Logger:     observability.Discard(),
		CookieName: testCookie,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	return &testEnv{
		handler: NewServer(opts).Handler(),
		auth:    authService,
	}
}

// account seeds a user with role and returns it with a live session token
func (e *testEnv) account(t *testing.T, email string, role auth.Role) (*auth.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := e.auth.SeedUser(ctx, email, email, testPassword, role)
	require.NoError(t, err)
	_, token, _, err := e.auth.Login(ctx, email, testPassword)
	require.NoError(t, err)
	return user, token
}

type request struct {
	method  string
	path    string
	token   string
	body    interface{}
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

// todoBody is the decoded todo response
type todoBody struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Version      int64  `json:"version"`
	Capabilities struct {
		View   bool `json:"view"`
		Update bool `json:"update"`
		Delete bool `json:"delete"`
	} `json:"capabilities"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) createTodo(t *testing.T, token, title string) todoBody {
	t.Helper()
	w := e.do(t, request{method: http.MethodPost, path: "/todos", token: token, body: map[string]string{"title": title}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[todoBody](t, w)
}
