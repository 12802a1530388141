package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		headerID := w.Header().Get("X-Request-ID")
		if headerID == "" {
			t.Error("missing X-Request-ID header")
		}
		if ctxID != headerID {
			t.Errorf("context id %s does not match header id %s", ctxID, headerID)
		}
	})

	t.Run("honors caller-supplied id", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if ctxID != "req-42" {
			t.Errorf("context id = %s, want req-42", ctxID)
		}
		if w.Header().Get("X-Request-ID") != "req-42" {
			t.Errorf("header id = %s, want req-42", w.Header().Get("X-Request-ID"))
		}
	})
}

func TestRequestIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Errorf("expected empty id, got %s", got)
	}
}
