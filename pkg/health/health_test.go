package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()

	w := httptest.NewRecorder()
	h.LivenessHandler()(w, httptest.NewRequest("GET", "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusUp, resp.Status)
}

func TestReadinessHandler_AllUp(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(ctx context.Context) error { return nil })
	h.Register("postgres", func(ctx context.Context) error { return nil })

	w := httptest.NewRecorder()
	h.ReadinessHandler()(w, httptest.NewRequest("GET", "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["redis"].Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
}

func TestReadinessHandler_OneDown(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(ctx context.Context) error { return nil })
	h.Register("postgres", func(ctx context.Context) error { return errors.New("connection refused") })

	w := httptest.NewRecorder()
	h.ReadinessHandler()(w, httptest.NewRequest("GET", "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, StatusDown, resp.Checks["postgres"].Status)
	assert.Contains(t, resp.Checks["postgres"].Error, "connection refused")
}

func TestReadinessHandler_NoCheckers(t *testing.T) {
	h := NewHandler()

	w := httptest.NewRecorder()
	h.ReadinessHandler()(w, httptest.NewRequest("GET", "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
