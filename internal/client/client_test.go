package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions() Options {
	return Options{Timeout: 5 * time.Second, RetryCount: 2, RetryWait: time.Millisecond}
}

func writeEnvelope(w http.ResponseWriter, status int, typ, msg string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := 2000
	if status >= 400 {
		code = -1
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "type": typ, "message": msg, "result": result})
}

func TestClient_StartSendsBearerAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/operations/start", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-01-17", body["operation_date"])
		assert.Equal(t, "Inventory QC - IN", body["role"])

		writeEnvelope(w, http.StatusOK, "warning", "Previous operation 'Procurement' not completed yet", map[string]any{
			"operation": map[string]any{"operation_role": "Inventory QC - IN", "status": "IN_PROGRESS"},
			"warning":   "Previous operation 'Procurement' not completed yet",
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok", testOptions(), zap.NewNop())
	res, err := c.Start(context.Background(), "2024-01-17", "A", "Inventory QC - IN")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", string(res.Operation.Status))
	require.NotNil(t, res.Warning)
}

func TestClient_ConflictBecomesAPIError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusConflict, "error", "Operation already started", map[string]any{
			"error": "ALREADY_STARTED", "started_by": "Ada Obi", "started_at": "2024-01-17T09:00:00+01:00",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", testOptions(), zap.NewNop())
	_, err := c.Start(context.Background(), "2024-01-17", "A", "Procurement")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ALREADY_STARTED", apiErr.Kind)
	assert.Equal(t, "Ada Obi", apiErr.StartedBy)
	assert.Equal(t, int32(1), hits.Load(), "4xx is not retried")
}

func TestClient_RetriesReadsOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, "error", "Service temporarily unavailable, please retry",
				map[string]any{"error": "TRANSIENT"})
			return
		}
		assert.Equal(t, "2024-01-15", r.URL.Query().Get("operation_date"))
		writeEnvelope(w, http.StatusOK, "success", "ok", map[string]any{
			"operation_date": "2024-01-15", "is_restricted_day": true,
			"batches": []map[string]any{{"batch": "A", "status": "RED"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", testOptions(), zap.NewNop())
	list, err := c.Batches(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.True(t, list.IsRestrictedDay)
	require.Len(t, list.Batches, 1)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_DoesNotReplayWritesOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusServiceUnavailable, "error", "Service temporarily unavailable, please retry",
			map[string]any{"error": "TRANSIENT"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", testOptions(), zap.NewNop())
	_, err := c.End(context.Background(), "2024-01-17", "A", "Procurement")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_GetOperationEscapesRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/operations/2024-01-17/B/Stock handler 1", r.URL.Path)
		writeEnvelope(w, http.StatusOK, "success", "ok", map[string]any{
			"operation_role": "Stock handler 1", "status": "COMPLETED", "duration_minutes": 12,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", testOptions(), zap.NewNop())
	op, err := c.GetOperation(context.Background(), "2024-01-17", "B", "Stock handler 1")
	require.NoError(t, err)
	require.NotNil(t, op.DurationMinutes)
	assert.Equal(t, 12, *op.DurationMinutes)
}

func TestClient_LoginWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, "success", "Login successful", map[string]any{
			"success": true,
			"token":   map[string]any{"access_token": "abc", "token_type": "bearer", "expires_in": 86400},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", testOptions(), zap.NewNop())
	res, err := c.Login(context.Background(), "ada@pally.ng", "SecurePass123")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token.AccessToken)
}

func TestClient_ExportDailySummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", testOptions(), zap.NewNop())
	data, err := c.ExportDailySummary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)
}
