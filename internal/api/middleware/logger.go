package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"library-engine/internal/domain/staff"

	"github.com/go-chi/chi/v5/middleware"
)

// StructuredLogger logs one line per request. It reads the session after the
// handler chain ran, so it sees what AuthMiddleware stored.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()
			holder := &sessionHolder{}
			r = r.WithContext(withSessionHolder(r.Context(), holder))
			defer func() {
				logger.InfoContext(r.Context(), "Served request",
					"proto", r.Proto,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"status", ww.Status(),
					"latency_ms", float64(time.Since(t1).Nanoseconds())/1000000.0,
					"bytes_written", ww.BytesWritten(),
					"request_id", middleware.GetReqID(r.Context()),
					"account_id", holder.session.AccountID,
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

type sessionHolder struct {
	session staff.Session
}

type sessionHolderKey struct{}

func withSessionHolder(ctx context.Context, h *sessionHolder) context.Context {
	return context.WithValue(ctx, sessionHolderKey{}, h)
}

// rememberSession lets StructuredLogger report the account behind a request.
func rememberSession(ctx context.Context, s staff.Session) context.Context {
	if h, ok := ctx.Value(sessionHolderKey{}).(*sessionHolder); ok {
		h.session = s
	}
	return staff.WithSession(ctx, s)
}
