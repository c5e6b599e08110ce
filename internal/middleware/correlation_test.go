package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(CorrelationKey).(string)
		if !ok || id == "" {
			t.Error("correlation id missing from context")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("header missing")
	}
}

func TestCorrelationID_PropagatesIncomingHeader(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
}

func TestCorrelationID_ReplacesUnusableHeader(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", 200)},
		{"control characters", "abc\x00def"},
		{"spaces", "abc def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetCorrelationID(r.Context())
				w.WriteHeader(http.StatusTeapot)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Correlation-ID", tt.id)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.NotEqual(t, tt.id, seen)
			assert.Len(t, seen, 36)
			assert.Equal(t, http.StatusTeapot, w.Code)
		})
	}
}

func TestGetCorrelationID_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", GetCorrelationID(context.Background()))
	assert.Equal(t, "x", GetCorrelationID(WithCorrelationID(context.Background(), "x")))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/api/content/ingest", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(4, func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	h(httptest.NewRecorder(), req)

	assert.Error(t, readErr)
}
