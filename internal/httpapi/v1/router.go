// Package v1 wires the HTTP surface of the transport back office.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
    "log/slog"
    "net/http"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/go-chi/cors"

    "github.com/tinoosan/tms/internal/service/booking"
    "github.com/tinoosan/tms/internal/service/party"
    "github.com/tinoosan/tms/internal/service/payment"
    "github.com/tinoosan/tms/internal/service/statement"
    "github.com/tinoosan/tms/internal/tms"
)

// Services groups the business services the API delegates to.
type Services struct {
    Parties    party.Service
    Bookings   booking.Service
    Payments   payment.Service
    Statements statement.Service
}

// Options carries transport settings. Zero values are usable.
type Options struct {
    // Currency names the currency for *_minor fields; defaults to INR.
    Currency    string
    CORSOrigins []string
    Auth        AuthConfig
}

// Server wires handlers and middleware using Chi.
type Server struct {
    parties    party.Service
    bookings   booking.Service
    payments   payment.Service
    statements statement.Service
    ready      ReadyChecker
    curr       string
    log        *slog.Logger
    rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// ready may be nil, in which case /readyz always reports ready.
func New(svc Services, ready ReadyChecker, logger *slog.Logger, opts Options) *Server {
    if opts.Currency == "" { opts.Currency = tms.DefaultCurrency }
    if len(opts.CORSOrigins) == 0 { opts.CORSOrigins = []string{"*"} }

    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)
    r.Use(cors.Handler(cors.Options{
        AllowedOrigins:   opts.CORSOrigins,
        AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
        AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
        ExposedHeaders:   []string{"Link", "Content-Disposition"},
        AllowCredentials: false,
        MaxAge:           300,
    }))
    if auth := authJWT(opts.Auth); auth != nil { r.Use(auth) }

    s := &Server{
        parties:    svc.Parties,
        bookings:   svc.Bookings,
        payments:   svc.Payments,
        statements: svc.Statements,
        ready:      ready,
        curr:       opts.Currency,
        log:        logger,
        rt:         r,
    }
    s.routes()
    return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
    // Parties
    s.rt.Post("/v1/parties", s.postParty)
    s.rt.Get("/v1/parties", s.listParties)
    s.rt.Get("/v1/parties/{id}", s.getParty)
    s.rt.Get("/v1/parties/{id}/balance", s.getPartyBalance)
    s.rt.With(s.validateLedgerQuery()).Get("/v1/parties/{id}/ledger", s.getPartyLedger)
    s.rt.With(s.validateLedgerQuery()).Get("/v1/parties/{id}/ledger.xlsx", s.exportPartyLedger)
    // Masters
    s.rt.Post("/v1/items", s.postItem)
    s.rt.Get("/v1/items", s.listItems)
    s.rt.Post("/v1/rates", s.postRate)
    s.rt.Get("/v1/rates", s.listRates)
    // Bookings
    s.rt.With(s.validatePostToken()).Post("/v1/tokens", s.postToken)
    s.rt.Get("/v1/tokens", s.listTokens)
    s.rt.Get("/v1/tokens/{id}", s.getToken)
    s.rt.Post("/v1/challans", s.postChallan)
    s.rt.Get("/v1/challans/{id}", s.getChallan)
    s.rt.Post("/v1/bills", s.postBill)
    s.rt.Get("/v1/bills/{id}.xlsx", s.exportBill)
    s.rt.Get("/v1/bills/{id}", s.getBill)
    // Payments
    s.rt.With(s.validatePostPayment()).Post("/v1/payments", s.postPayment)
    s.rt.Get("/v1/payments", s.listPayments)
    // Reports
    s.rt.Get("/v1/reports/outstanding", s.outstandingReport)
    s.rt.Get("/v1/reports/daily-bookings", s.dailyBookingsReport)
    // Dictionary
    s.rt.Get("/v1/dictionary/payment-modes", s.getPaymentModes)
    s.rt.Get("/v1/dictionary/token-statuses", s.getTokenStatuses)
    s.rt.Get("/v1/dictionary/rate-types", s.getRateTypes)
    // Health and metrics (unversioned)
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Handle("/metrics", metricsHandler())
}
