package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/app"
	"github.com/upb/task-tracker/config"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories/memory"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail  = "admin@example.com"
	managerCode = "letmemanage"
)

type harness struct {
	t     *testing.T
	srv   *httptest.Server
	store *memory.Store
}

type reply struct {
	status int
	header http.Header
	body   map[string]interface{}
	raw    string
}

func (r reply) data() map[string]interface{} {
	return r.body["data"].(map[string]interface{})
}

func (r reply) list() []interface{} {
	return r.body["data"].([]interface{})
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigins: []string{"http://localhost:*"}},
		Auth: config.AuthConfig{
			JWTSecret:   "routes-test-signing-key-routes-test",
			TokenTTL:    time.Hour,
			AdminEmail:  adminEmail,
			ManagerCode: managerCode,
			BcryptCost:  bcrypt.MinCost,
		},
		Observability: config.ObservabilityConfig{LogLevel: "error", MetricsEnabled: true},
	}

	store := memory.NewStore()
	deps := app.NewWithRepositories(cfg, zaptest.NewLogger(t), store.Repositories(), store.TransactionManager())
	srv := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(srv.Close)

	return &harness{t: t, srv: srv, store: store}
}

func (h *harness) do(method, path, token string, body interface{}) reply {
	h.t.Helper()
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, payload)
	require.NoError(h.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)

	out := reply{status: resp.StatusCode, header: resp.Header, raw: string(raw)}
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(h.t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (h *harness) login(email, password string, code *string) string {
	h.t.Helper()
	body := map[string]interface{}{"email": email, "password": password}
	if code != nil {
		body["escalation_code"] = *code
	}
	r := h.do(http.MethodPost, "/api/v1/auth/login", "", body)
	require.Equal(h.t, http.StatusOK, r.status, r.raw)
	return r.body["access_token"].(string)
}

func (h *harness) me(token string) map[string]interface{} {
	h.t.Helper()
	r := h.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(h.t, http.StatusOK, r.status, r.raw)
	return r.data()
}

func ptr(s string) *string { return &s }

func TestInfrastructureEndpoints(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil).status)

	ready := h.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, ready.status)

	h.login("someone@x.com", "pw", nil)
	metrics := h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.status)
	assert.Contains(t, metrics.raw, `tasktracker_logins_total{outcome="provisioned"} 1`)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/nowhere", "", nil).status)
}

func TestAuthentication(t *testing.T) {
	h := newHarness(t)

	t.Run("protected routes challenge anonymous callers", func(t *testing.T) {
		for _, tc := range []struct{ name, token string }{
			{"missing", ""},
			{"garbage", "not-a-jwt"},
		} {
			r := h.do(http.MethodGet, "/api/v1/tasks", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, r.status, tc.name)
			assert.Equal(t, "Bearer", r.header.Get("WWW-Authenticate"), tc.name)
		}
	})

	t.Run("first login provisions a member", func(t *testing.T) {
		token := h.login("newbie@x.com", "pw", nil)
		me := h.me(token)
		assert.Equal(t, "newbie", me["username"])
		assert.Equal(t, "member", me["role"])
		assert.NotContains(t, me, "password_hash")
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		r := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "newbie@x.com", "password": "other"})
		assert.Equal(t, http.StatusUnauthorized, r.status)
	})

	t.Run("escalation is re-derived on every login", func(t *testing.T) {
		token := h.login("climber@x.com", "pw", ptr(managerCode))
		assert.Equal(t, "manager", h.me(token)["role"])

		h.login("climber@x.com", "pw", nil)
		assert.Equal(t, "member", h.me(token)["role"], "stored role wins over the token claim")
	})

	t.Run("admin address", func(t *testing.T) {
		token := h.login(adminEmail, "pw", nil)
		assert.Equal(t, "admin", h.me(token)["role"])
	})

	t.Run("register", func(t *testing.T) {
		short := map[string]string{"username": "reggie", "email": "reggie@x.com", "password": "pw"}
		assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/v1/auth/register", "", short).status)

		body := map[string]string{"username": "reggie", "email": "reggie@x.com", "password": "reggie-pass"}
		r := h.do(http.MethodPost, "/api/v1/auth/register", "", body)
		require.Equal(t, http.StatusCreated, r.status, r.raw)
		assert.Equal(t, "member", r.data()["role"])

		assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/v1/auth/register", "", body).status)
	})
}

func TestTrackerWorkflow(t *testing.T) {
	h := newHarness(t)

	admin := h.login(adminEmail, "pw", nil)
	manager := h.login("boss@x.com", "pw", ptr(managerCode))
	member := h.login("worker@x.com", "pw", nil)
	managerID := uuid.MustParse(h.me(manager)["id"].(string))
	memberID := h.me(member)["id"].(string)

	// teams
	r := h.do(http.MethodPost, "/api/v1/teams", member, map[string]string{"name": "Ops"})
	require.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "Only admins can manage teams", r.body["message"])

	r = h.do(http.MethodPost, "/api/v1/teams", admin, map[string]string{"name": "Ops"})
	require.Equal(t, http.StatusCreated, r.status, r.raw)
	adminTeam := r.data()["id"].(string)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/v1/teams", admin, map[string]string{"name": "Ops"}).status)

	managed := models.NewTeam("Platform", nil, managerID)
	require.NoError(t, h.store.Repositories().Teams.Create(t.Context(), managed))

	// projects
	r = h.do(http.MethodPost, "/api/v1/projects", manager, map[string]string{"name": "Elsewhere", "team_id": adminTeam})
	require.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "You can only create projects for teams you manage", r.body["message"])

	r = h.do(http.MethodPost, "/api/v1/projects", manager, map[string]string{"name": "Apollo", "team_id": managed.ID.String()})
	require.Equal(t, http.StatusCreated, r.status, r.raw)
	projectID := r.data()["id"].(string)
	assert.Equal(t, managerID.String(), r.data()["manager_id"])

	r = h.do(http.MethodGet, "/api/v1/projects?status=archived", manager, nil)
	assert.Equal(t, http.StatusBadRequest, r.status)

	// tasks
	r = h.do(http.MethodPost, "/api/v1/tasks", member, map[string]string{"title": "x", "project_id": projectID, "assigned_to": memberID})
	assert.Equal(t, http.StatusForbidden, r.status)

	r = h.do(http.MethodPost, "/api/v1/tasks", manager, map[string]string{"title": "Wire it", "project_id": projectID, "assigned_to": memberID})
	require.Equal(t, http.StatusCreated, r.status, r.raw)
	taskID := r.data()["id"].(string)
	assert.Equal(t, "todo", r.data()["status"])

	r = h.do(http.MethodPost, "/api/v1/tasks", manager, map[string]string{"title": "Ghost", "project_id": projectID, "assigned_to": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, r.status)

	r = h.do(http.MethodGet, "/api/v1/tasks", member, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.list(), 1)

	r = h.do(http.MethodPut, "/api/v1/tasks/"+taskID, member, map[string]string{"status": "done", "title": "Renamed"})
	require.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "Members can only update task status", r.body["message"])

	r = h.do(http.MethodPut, "/api/v1/tasks/"+taskID, member, map[string]string{"Status": "in_progress"})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	assert.Equal(t, "in_progress", r.data()["status"])

	r = h.do(http.MethodPut, "/api/v1/tasks/"+taskID, member, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	assert.Equal(t, "done", r.data()["status"])

	r = h.do(http.MethodGet, "/api/v1/tasks?status=done", manager, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.list(), 1)

	r = h.do(http.MethodDelete, "/api/v1/tasks/"+taskID, manager, nil)
	require.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "Only admins can delete tasks", r.body["message"])

	// comments
	r = h.do(http.MethodPost, "/api/v1/comments", member, map[string]string{"task_id": taskID, "message": "shipped"})
	require.Equal(t, http.StatusCreated, r.status, r.raw)

	r = h.do(http.MethodGet, "/api/v1/comments/"+taskID, manager, nil)
	require.Equal(t, http.StatusOK, r.status)
	require.Len(t, r.list(), 1)
	assert.Equal(t, "worker", r.list()[0].(map[string]interface{})["author_name"])

	// stats
	r = h.do(http.MethodGet, "/api/v1/stats/overview", member, nil)
	require.Equal(t, http.StatusOK, r.status, r.raw)
	tasks := r.data()["tasks"].(map[string]interface{})
	assert.Equal(t, float64(1), tasks["done"])

	// cascade
	r = h.do(http.MethodDelete, "/api/v1/projects/"+projectID, admin, nil)
	require.Equal(t, http.StatusNoContent, r.status, r.raw)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/tasks/"+taskID, admin, nil).status)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/comments/"+taskID, admin, nil).status)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/tasks/not-a-uuid", admin, nil).status)
}
