package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObservabilityConfig
		wantErr bool
	}{
		{name: "json", cfg: config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}},
		{name: "console", cfg: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"}},
		{name: "default level", cfg: config.ObservabilityConfig{}},
		{name: "invalid level", cfg: config.ObservabilityConfig{LogLevel: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestMetrics(t *testing.T) {
	_, m := NewRegistry()

	m.ObserveRequest(http.MethodGet, "/api/v1/tasks", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/tasks", http.StatusOK, 30*time.Millisecond)
	m.RecordLogin(LoginProvisioned)
	m.RecordDenial("task", "delete")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `tasktracker_http_requests_total{method="GET",route="/api/v1/tasks",status="200"} 2`)
	assert.Contains(t, string(body), `tasktracker_logins_total{outcome="provisioned"} 1`)
	assert.Contains(t, string(body), `tasktracker_authz_denials_total{action="delete",resource="task"} 1`)

	t.Run("nil metrics are inert", func(t *testing.T) {
		var nilMetrics *Metrics
		assert.NotPanics(t, func() {
			nilMetrics.ObserveRequest("GET", "/", 200, time.Millisecond)
			nilMetrics.RecordLogin(LoginAuthenticated)
			nilMetrics.RecordDenial("team", "create")
		})
	})
}
