package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/storefront/pkg/logger"
)

func TestRequestLogger_StoresEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.FromContext(r.Context())
		l.Info("inside handler")
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(base)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/cart/items", nil)
	r.Header.Set(SessionHeader, "sess-42")
	handler.ServeHTTP(w, r)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "sess-42", out["session_id"])
}

func TestRequestLogger_NoSession(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
	})

	handler := RequestLogger(base)(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/products", nil))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	_, present := out["session_id"]
	assert.False(t, present)
}

func TestRequestLogging_SetsCorrelationHeader(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	handler := RequestLogging(base)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/products", nil))

	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestRequestLogging_PreservesInboundCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	handler := RequestLogging(base)(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/products", nil)
	r.Header.Set("X-Correlation-ID", "corr-inbound")
	handler.ServeHTTP(w, r)

	assert.Equal(t, "corr-inbound", w.Header().Get("X-Correlation-ID"))
	assert.Contains(t, buf.String(), "corr-inbound")
}
