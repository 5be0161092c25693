package infra

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TraceHeader сквозной идентификатор запроса консоли.
const TraceHeader = "X-Trace-ID"

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TracingMiddleware берет Trace-ID из заголовка или генерирует новый и возвращает его клиенту.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID)))
	})
}

// TraceID достает ID запроса; пустая строка, если middleware не отработал.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// AccessLog пишет по строке zap на каждый запрос.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("access")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("trace_id", TraceID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
