package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	handler := RateLimit(1, 3, quietLogger())(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/products", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i)
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	handler := RateLimit(1, 2, quietLogger())(okHandler())

	var lastCode int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/products", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(w, r)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	handler := RateLimit(1, 1, quietLogger())(okHandler())

	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest("GET", "/", nil)
	r1.RemoteAddr = "10.0.0.3:1234"
	handler.ServeHTTP(w1, r1)

	// A different IP has its own bucket.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.RemoteAddr = "10.0.0.4:1234"
	handler.ServeHTTP(w2, r2)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestVisitorStore_Cleanup(t *testing.T) {
	s := &visitorStore{
		visitors: make(map[string]*visitor),
		rps:      1,
		burst:    1,
		ttl:      time.Minute,
		nowFunc:  time.Now,
	}

	s.getVisitor("10.0.0.5")
	assert.Equal(t, 1, s.len())

	// Advance the clock past the TTL and run cleanup.
	s.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	s.cleanup()
	assert.Equal(t, 0, s.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{
			"x-forwarded-for single",
			func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.7") },
			"203.0.113.7",
		},
		{
			"x-forwarded-for chain",
			func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.8, 10.0.0.1") },
			"203.0.113.8",
		},
		{
			"x-real-ip",
			func(r *http.Request) { r.Header.Set("X-Real-IP", "203.0.113.9") },
			"203.0.113.9",
		},
		{
			"remote addr",
			func(r *http.Request) { r.RemoteAddr = "192.0.2.1:9999" },
			"192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.expect, clientIP(r))
		})
	}
}
