package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/security/token"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/repository/memory"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	profileUC "github.com/fastygo/taskflow/usecase/profile"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

const secret = "router-test-secret"

type stubStatus struct{ status monitor.Status }

func (s *stubStatus) GetStatus() monitor.Status { return s.status }

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type harness struct {
	handler fasthttp.RequestHandler
	health  *stubStatus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := token.New(secret, time.Hour)
	require.NoError(t, err)

	store := memory.New()
	adapter := httpcontext.NewAdapter(time.Second)
	auth := authUC.New(store.Users(), tokens, nil, nil)
	health := &stubStatus{status: monitor.Status{Healthy: true, Services: map[string]bool{"memory": true}}}

	r := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(auth, adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(store.Users(), auth, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(store.Tasks(), nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(health, adapter, nil),
	}, Options{BasePath: "/api/"}, middleware.Auth(auth, adapter, nil))

	return &harness{
		handler: Chain(r.Handler, middleware.Recover(nil), middleware.CORS("http://localhost:3000")),
		health:  health,
	}
}

func (h *harness) do(t *testing.T, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if bearer != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+bearer)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	h.handler(ctx)

	var env envelope
	if len(ctx.Response.Body()) > 0 {
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	}
	return ctx.Response.StatusCode(), env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (h *harness) register(t *testing.T, email string) domain.Session {
	t.Helper()
	status, env := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "User " + email, "email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[domain.Session](t, env)
}

func (h *harness) createTask(t *testing.T, bearer string, body map[string]interface{}) domain.Task {
	t.Helper()
	status, env := h.do(t, http.MethodPost, "/api/tasks", bearer, body)
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[domain.Task](t, env)
}

func TestFilterAndStatsScenario(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")

	a := h.createTask(t, session.Token, map[string]interface{}{"title": "A", "status": "pending", "priority": "high"})
	h.createTask(t, session.Token, map[string]interface{}{"title": "B", "status": "completed", "priority": "low"})

	status, env := h.do(t, http.MethodGet, "/api/tasks?status=pending", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[taskUC.Page](t, env)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, a.ID, page.Tasks[0].ID)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)

	status, env = h.do(t, http.MethodGet, "/api/tasks/stats", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t,
		`{"total":2,"byStatus":{"pending":1,"in-progress":0,"completed":1},"byPriority":{"low":1,"medium":0,"high":1}}`,
		string(env.Data))
}

func TestAuthRejectionScenario(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")

	status, env := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Nil(t, env.Data)

	status, env = h.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "not authorized to access this route", env.Error)

	past := time.Now().Add(-48 * time.Hour)
	stale, err := token.New(secret, time.Hour, token.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	expired, _, err := stale.Issue(session.User.ID)
	require.NoError(t, err)

	status, env = h.do(t, http.MethodGet, "/api/auth/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "not authorized to access this route", env.Error)

	status, env = h.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]interface{}](t, env)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, me, "PasswordHash")
}

func TestLoginIssuesSession(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "ada@example.com")

	status, env := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "Ada@Example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, status)
	session := decode[domain.Session](t, env)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, registered.User.ID, session.User.ID)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID", env.Code)
	assert.NotEmpty(t, env.Details)

	h.register(t, "ada@example.com")
	status, env = h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Again", "email": "ada@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CONFLICT", env.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "alice@example.com")
	bob := h.register(t, "bob@example.com")

	task := h.createTask(t, alice.Token, map[string]interface{}{"title": "Private"})
	path := "/api/tasks/" + task.ID

	status, env := h.do(t, http.MethodGet, path, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	notFound := env

	status, env = h.do(t, http.MethodGet, "/api/tasks/does-not-exist", bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, notFound, env)

	status, _ = h.do(t, http.MethodPut, path, bob.Token, map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodDelete, path, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = h.do(t, http.MethodGet, "/api/tasks", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, decode[taskUC.Page](t, env).Total)

	status, env = h.do(t, http.MethodGet, path, alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Private", decode[domain.Task](t, env).Title)
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")

	status, env := h.do(t, http.MethodPost, "/api/tasks", session.Token, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID", env.Code)

	task := h.createTask(t, session.Token, map[string]interface{}{"title": "Ship", "dueDate": "2024-05-01"})
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	require.NotNil(t, task.DueDate)
	path := "/api/tasks/" + task.ID

	status, env = h.do(t, http.MethodPut, path, session.Token, map[string]interface{}{"status": "in-progress", "dueDate": nil})
	require.Equal(t, http.StatusOK, status, env.Error)
	updated := decode[domain.Task](t, env)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, "Ship", updated.Title)
	assert.Nil(t, updated.DueDate)

	status, env = h.do(t, http.MethodPut, path, session.Token, map[string]interface{}{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = h.do(t, http.MethodDelete, path, session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"task deleted"}`, string(env.Data))

	status, _ = h.do(t, http.MethodGet, path, session.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListPaginationAndSorting(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")

	priorities := []string{"low", "high", "medium", "high", "low"}
	for i, p := range priorities {
		h.createTask(t, session.Token, map[string]interface{}{"title": fmt.Sprintf("task %d", i), "priority": p})
	}

	status, env := h.do(t, http.MethodGet, "/api/tasks?sortBy=priority&order=desc&limit=2&page=1", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[taskUC.Page](t, env)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Count)
	for _, task := range page.Tasks {
		assert.Equal(t, domain.PriorityHigh, task.Priority)
	}

	seen := map[string]bool{}
	for p := 1; p <= page.TotalPages; p++ {
		_, env := h.do(t, http.MethodGet, fmt.Sprintf("/api/tasks?sortBy=title&order=asc&limit=2&page=%d", p), session.Token, nil)
		for _, task := range decode[taskUC.Page](t, env).Tasks {
			assert.False(t, seen[task.ID], "task repeated across pages")
			seen[task.ID] = true
		}
	}
	assert.Len(t, seen, 5)

	status, env = h.do(t, http.MethodGet, "/api/tasks?page=99&limit=abc&search=TASK%201", session.Token, nil)
	require.Equal(t, http.StatusOK, status)
	page = decode[taskUC.Page](t, env)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 99, page.CurrentPage)
}

func TestListHugePageIsEmpty(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")
	h.createTask(t, session.Token, map[string]interface{}{"title": "only"})

	status, env := h.do(t, http.MethodGet, "/api/tasks?page=100000000000000000&limit=100", session.Token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	page := decode[taskUC.Page](t, env)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 100000000000000000, page.CurrentPage)
}

func TestProfileAndPassword(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "ada@example.com")

	status, env := h.do(t, http.MethodPut, "/api/auth/profile", session.Token, map[string]string{"bio": "mathematician"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "mathematician", decode[domain.User](t, env).Bio)

	status, env = h.do(t, http.MethodPut, "/api/auth/profile", session.Token, map[string]string{"name": strings.Repeat("n", 51)})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPut, "/api/auth/password", session.Token, map[string]string{"currentPassword": "nope", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = h.do(t, http.MethodPut, "/api/auth/password", session.Token, map[string]string{"currentPassword": "hunter22", "newPassword": "newpass1"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[domain.Session](t, env).Token)

	status, _ = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "newpass1"})
	assert.Equal(t, http.StatusOK, status)
}

func TestGoogleRouteDisabledByDefault(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"idToken": "x"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", env.Error)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	h.health.status = monitor.Status{Healthy: false, Services: map[string]bool{"postgresql": false}}
	status, env = h.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEGRADED", env.Code)
}

func TestPreflightAndUnknownRoute(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodOptions, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env := h.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestGroupPath(t *testing.T) {
	assert.Equal(t, "", groupPath(""))
	assert.Equal(t, "", groupPath("/"))
	assert.Equal(t, "/api", groupPath("/api/"))
	assert.Equal(t, "/v1", groupPath("v1"))
}
