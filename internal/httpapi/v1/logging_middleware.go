package v1

import (
    "log/slog"
    "net/http"
    "runtime/debug"
    "time"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs each request at Debug on entry and once on exit, at
// Error for 5xx, Warn for 4xx and Info otherwise. The route pattern is logged
// so /v1/parties/{id}/ledger groups across party ids.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
            start := time.Now()
            reqID := chimw.GetReqID(r.Context())
            l.Debug("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

            next.ServeHTTP(ww, r)

            level := slog.LevelInfo
            switch st := ww.Status(); {
            case st >= 500:
                level = slog.LevelError
            case st >= 400:
                level = slog.LevelWarn
            }
            attrs := []any{
                "req_id", reqID,
                "method", r.Method,
                "path", r.URL.Path,
                "status", ww.Status(),
                "bytes", ww.BytesWritten(),
                "duration_ms", time.Since(start).Milliseconds(),
            }
            if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
                attrs = append(attrs, "route", rc.RoutePattern())
            }
            if r.Header.Get("Idempotency-Key") != "" { attrs = append(attrs, "idempotent", true) }
            l.Log(r.Context(), level, "request complete", attrs...)
        })
    }
}

// recoverer turns a panic into a logged 500 with the JSON error envelope.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            defer func() {
                if rec := recover(); rec != nil {
                    reqID := chimw.GetReqID(r.Context())
                    l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
                    writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
                }
            }()
            next.ServeHTTP(w, r)
        })
    }
}
