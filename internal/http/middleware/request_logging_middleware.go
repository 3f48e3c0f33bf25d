package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const callerContextKey contextKey = "caller"

// callerInfo is allocated by the access logger and filled in by the auth
// middlewares mounted below it.
type callerInfo struct {
	subject     string
	tokenSource string
	admin       bool
}

func noteCaller(ctx context.Context, fill func(*callerInfo)) {
	if c, ok := ctx.Value(callerContextKey).(*callerInfo); ok {
		fill(c)
	}
}

func accessLogLevel(route string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return slog.LevelWarn
	case strings.HasPrefix(route, "/health/"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// StructuredRequestLogger writes one "http.request" record per request.
// Probe traffic is logged at debug; refused requests at warn.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		caller := &callerInfo{}
		r = r.WithContext(context.WithValue(r.Context(), callerContextKey, caller))
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}

		attrs := make([]slog.Attr, 0, 13)
		attrs = append(attrs,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Float64("duration_ms", float64(time.Since(started).Microseconds())/1000.0),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("client_ip", ClientIP(r)),
			slog.String("user_agent", r.UserAgent()),
		)
		if caller.subject != "" {
			attrs = append(attrs,
				slog.String("user_id", caller.subject),
				slog.String("token_source", caller.tokenSource),
				slog.Bool("admin", caller.admin),
			)
		}
		slog.Default().LogAttrs(r.Context(), accessLogLevel(route, status), "http.request", attrs...)
	})
}
