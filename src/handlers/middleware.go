package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alfalang/alfapay/backend/src/logger"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ContextualLoggerMiddleware attaches a per-request logger carrying a fresh
// request ID to the request context.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestIDFromContext returns the request ID set by
// ContextualLoggerMiddleware, if any.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
