package v1

import (
    "net/http"
    "strconv"

    "github.com/google/uuid"

    "github.com/tinoosan/tms/internal/service/payment"
)

// POST /v1/payments records a payment. With an Idempotency-Key a repeat
// returns the stored payment with 200 instead of 201.
func (s *Server) postPayment(w http.ResponseWriter, r *http.Request) {
    in := r.Context().Value(ctxKeyPostPayment).(payment.Input)
    key, ok := idempotencyKey(r)
    if !ok { badRequest(w, "invalid Idempotency-Key"); return }
    p, replayed, err := s.payments.Record(r.Context(), in, key)
    if err != nil { s.fail(w, r, err); return }
    status := http.StatusCreated
    if replayed { status = http.StatusOK }
    toJSON(w, status, s.toPaymentResponse(p))
}

// GET /v1/payments?party_id=&limit= lists newest first.
func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    var partyID *uuid.UUID
    if raw := q.Get("party_id"); raw != "" {
        id, err := uuid.Parse(raw)
        if err != nil { badRequest(w, "invalid party_id"); return }
        partyID = &id
    }
    limit := 0
    if raw := q.Get("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 { badRequest(w, "invalid limit"); return }
        limit = n
    }
    list, err := s.payments.Recent(r.Context(), partyID, limit)
    if err != nil { s.fail(w, r, err); return }
    out := listResponse[paymentResponse]{Items: make([]paymentResponse, 0, len(list))}
    for _, p := range list { out.Items = append(out.Items, s.toPaymentResponse(p)) }
    toJSON(w, http.StatusOK, out)
}
