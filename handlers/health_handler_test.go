package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/repositories/postgres"
	"go.uber.org/zap"
)

// readinessData returns the reported status and database check. A 503 is
// read from the error envelope's details, anything else from data.
func readinessData(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	key := "data"
	if w.Code == http.StatusServiceUnavailable {
		assert.Equal(t, "service_unavailable", response["error"])
		assert.NotContains(t, response, "data")
		key = "details"
	}
	body := response[key].(map[string]interface{})
	checks := body["checks"].(map[string]interface{})
	return body["status"].(string), checks["database"].(string)
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name         string
		expect       func(mock sqlmock.Sqlmock)
		expectedCode int
		expectedDB   string
	}{
		{
			name: "healthy when database is available",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			},
			expectedCode: http.StatusOK,
			expectedDB:   "healthy",
		},
		{
			name: "unhealthy when database ping fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(sql.ErrConnDone)
			},
			expectedCode: http.StatusServiceUnavailable,
			expectedDB:   "unhealthy",
		},
		{
			name: "unhealthy when database query fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)
			},
			expectedCode: http.StatusServiceUnavailable,
			expectedDB:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			handler := NewHealthHandler(postgres.Wrap(db, logger), logger)

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			w := httptest.NewRecorder()

			handler.HandleReadiness(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			status, database := readinessData(t, w)
			assert.Equal(t, tt.expectedDB, database)
			assert.Equal(t, tt.expectedDB, status)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("healthy when no database configured", func(t *testing.T) {
		handler := NewHealthHandler(nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		status, database := readinessData(t, w)
		assert.Equal(t, "healthy", status)
		assert.Equal(t, "not_configured", database)
	})
}
