package v1

import (
    "net/http"
    "strconv"
    "time"

    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    httpRequestsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "tms",
            Name:      "http_requests_total",
            Help:      "Total number of HTTP requests",
        },
        []string{"method", "status"},
    )
    httpRequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "tms",
            Name:      "http_request_duration_seconds",
            Help:      "Duration of HTTP requests in seconds",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"method", "status"},
    )
    ledgerBuildsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "tms",
            Name:      "ledger_builds_total",
            Help:      "Party ledgers built, by outcome",
        },
        []string{"result"},
    )
    ledgerSkippedTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Namespace: "tms",
            Name:      "ledger_skipped_entries_total",
            Help:      "Entries left out of built ledgers because their date did not parse",
        },
    )
)

func metricsHandler() http.Handler {
    return promhttp.Handler()
}

func metricsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
        start := time.Now()
        next.ServeHTTP(ww, r)
        status := strconv.Itoa(ww.Status())
        httpRequestsTotal.WithLabelValues(r.Method, status).Inc()
        httpRequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
    })
}

// observeLedger records the outcome of one ledger build.
func observeLedger(result string, skipped int) {
    ledgerBuildsTotal.WithLabelValues(result).Inc()
    if skipped > 0 { ledgerSkippedTotal.Add(float64(skipped)) }
}
