package v1

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "strings"
    "time"

    chi "github.com/go-chi/chi/v5"
    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/service/booking"
    "github.com/tinoosan/tms/internal/service/payment"
    "github.com/tinoosan/tms/internal/tms"
)

type ctxKey string

const ctxKeyLedgerQuery ctxKey = "validatedLedgerQuery"
const ctxKeyPostToken ctxKey = "validatedPostToken"
const ctxKeyPostPayment ctxKey = "validatedPostPayment"

// validateLedgerQuery parses {id}, opening, from and to for the ledger
// endpoints. An inverted window is rejected here with invalid_range.
func (s *Server) validateLedgerQuery() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            id, err := uuid.Parse(chi.URLParam(r, "id"))
            if err != nil { badRequest(w, "invalid party id"); return }
            q := r.URL.Query()
            opening := decimal.Zero
            if raw := strings.TrimSpace(q.Get("opening")); raw != "" {
                d, err := parseAmount(raw)
                if err != nil { badRequest(w, "invalid opening"); return }
                opening = d
            }
            win, err := parseWindow(q)
            if err != nil {
                if errors.Is(err, errs.ErrInvalidRange) { observeLedger("invalid_range", 0) }
                s.fail(w, r, err)
                return
            }
            ctx := context.WithValue(r.Context(), ctxKeyLedgerQuery, ledgerQuery{PartyID: id, Opening: opening, Window: win})
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validatePostToken decodes POST /tokens and stores a booking.TokenInput.
func (s *Server) validatePostToken() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req postTokenRequest
            if !decodeJSON(w, r, &req) { return }
            if req.PartyID == uuid.Nil { badRequest(w, "party_id is required"); return }
            if req.Packages < 1 { badRequest(w, "packages must be >= 1"); return }
            in := booking.TokenInput{
                PartyID: req.PartyID, Consignor: req.Consignor, Consignee: req.Consignee, Marka: req.Marka,
                FromCity: req.FromCity, ToCity: req.ToCity, ItemName: req.ItemName,
                Packages: req.Packages, Weight: req.Weight.Decimal, Rate: req.Rate.ptr(),
                TruckNo: req.TruckNo, DriverName: req.DriverName, DriverMobile: req.DriverMobile, Remarks: req.Remarks,
            }
            if req.RateType != "" {
                rt, ok := tms.ParseRateType(req.RateType)
                if !ok { badRequest(w, "rate_type must be KG or PARCEL"); return }
                in.RateType = rt
            }
            if raw := strings.TrimSpace(req.BookedAt); raw != "" {
                t, err := parseDateTime(raw)
                if err != nil { badRequest(w, "invalid booked_at"); return }
                in.BookedAt = &t
            }
            ctx := context.WithValue(r.Context(), ctxKeyPostToken, in)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validatePostPayment decodes POST /payments and runs the service checks
// before the handler touches storage.
func (s *Server) validatePostPayment() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req postPaymentRequest
            if !decodeJSON(w, r, &req) { return }
            in := payment.Input{PartyID: req.PartyID, PaidOn: req.PaidOn, Amount: req.Amount.Decimal, Method: req.Mode, Remark: req.Remark}
            if _, err := s.payments.Validate(in); err != nil { s.fail(w, r, err); return }
            ctx := context.WithValue(r.Context(), ctxKeyPostPayment, in)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// parseWindow reads from/to. Both absent means no window; one without the
// other is rejected.
func parseWindow(q url.Values) (*ledger.Window, error) {
    rawFrom, rawTo := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
    if rawFrom == "" && rawTo == "" { return nil, nil }
    if rawFrom == "" || rawTo == "" { return nil, fmt.Errorf("from and to must be given together: %w", errs.ErrInvalid) }
    from, err := ledger.ParseDate(rawFrom)
    if err != nil { return nil, errInvalidParam("from") }
    to, err := ledger.ParseDate(rawTo)
    if err != nil { return nil, errInvalidParam("to") }
    w, err := ledger.NewWindow(from, to)
    if err != nil { return nil, err }
    return &w, nil
}

// dateTimeLayouts are tried before falling back to day-only parsing.
var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", ledger.TokenLayout, "02-01-2006 15:04", "2006-01-02 15:04:05"}

// parseDateTime keeps the time of day when the input carries one.
func parseDateTime(raw string) (time.Time, error) {
    for _, l := range dateTimeLayouts {
        if t, err := time.Parse(l, raw); err == nil { return t, nil }
    }
    return ledger.ParseDate(raw)
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
    id, err := uuid.Parse(chi.URLParam(r, name))
    if err != nil { return uuid.Nil, errInvalidParam(name) }
    return id, nil
}

func errInvalidParam(name string) error {
    return fmt.Errorf("invalid %s: %w", name, errs.ErrInvalid)
}
