package http

import (
	"net/http"
	"strings"

	"github.com/meridian-commerce/storefront/pkg/httputil"
	"github.com/meridian-commerce/storefront/pkg/middleware"
)

// ContentTypeJSON rejects mutating requests whose Content-Type is not JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// cartSession extracts the shopper's cart session identifier from the
// request header. It writes a 400 response and returns false when absent.
func cartSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := r.Header.Get(middleware.SessionHeader)
	if sid == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "MISSING_SESSION", Message: middleware.SessionHeader + " header is required"},
		})
		return "", false
	}
	return sid, true
}
