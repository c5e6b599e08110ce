package apikey

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"contenthub/internal/middleware"
)

type Verifier interface {
	Verify(ctx context.Context, plain string) (*Key, error)
}

type ctxKey struct{}

// FromContext returns the key that authenticated the request, if any.
func FromContext(ctx context.Context) (*Key, bool) {
	k, ok := ctx.Value(ctxKey{}).(*Key)
	return k, ok
}

// Require rejects requests without a valid key before next runs.
func Require(v Verifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		k, err := v.Verify(ctx, fromRequest(r))
		if err != nil {
			if !errors.Is(err, ErrInvalidKey) {
				slog.ErrorContext(ctx, "api key lookup failed", "error", err, "correlationId", middleware.GetCorrelationID(ctx))
			}
			writeUnauthorized(ctx, w)
			return
		}
		next(w, r.WithContext(context.WithValue(ctx, ctxKey{}, k)))
	}
}

func fromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func writeUnauthorized(ctx context.Context, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": ErrInvalidKey.Error(),
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
