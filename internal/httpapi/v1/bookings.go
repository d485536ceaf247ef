// Item and rate masters, tokens, challans and bills.
package v1

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/tinoosan/tms/internal/export"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/service/booking"
    "github.com/tinoosan/tms/internal/slug"
    "github.com/tinoosan/tms/internal/tms"
)

// POST /v1/items creates an item or returns the existing one with the same name.
func (s *Server) postItem(w http.ResponseWriter, r *http.Request) {
    var req postItemRequest
    if !decodeJSON(w, r, &req) { return }
    it, created, err := s.bookings.CreateItem(r.Context(), req.Name)
    if err != nil { s.fail(w, r, err); return }
    status := http.StatusOK
    if created { status = http.StatusCreated }
    toJSON(w, status, itemResponse{ID: it.ID, Name: it.Name})
}

// GET /v1/items
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
    list, err := s.bookings.ListItems(r.Context())
    if err != nil { s.fail(w, r, err); return }
    out := listResponse[itemResponse]{Items: make([]itemResponse, 0, len(list))}
    for _, it := range list { out.Items = append(out.Items, itemResponse{ID: it.ID, Name: it.Name}) }
    toJSON(w, http.StatusOK, out)
}

// POST /v1/rates
func (s *Server) postRate(w http.ResponseWriter, r *http.Request) {
    var req postRateRequest
    if !decodeJSON(w, r, &req) { return }
    rate, err := s.bookings.CreateRate(r.Context(), tms.Rate{
        PartyID: req.PartyID, FromCity: req.FromCity, ToCity: req.ToCity, RateType: tms.RateType(req.RateType), Rate: req.Rate.Decimal,
    })
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusCreated, s.toRateResponse(rate))
}

// GET /v1/rates
func (s *Server) listRates(w http.ResponseWriter, r *http.Request) {
    list, err := s.bookings.ListRates(r.Context())
    if err != nil { s.fail(w, r, err); return }
    out := listResponse[rateResponse]{Items: make([]rateResponse, 0, len(list))}
    for _, rt := range list { out.Items = append(out.Items, s.toRateResponse(rt)) }
    toJSON(w, http.StatusOK, out)
}

// POST /v1/tokens
func (s *Server) postToken(w http.ResponseWriter, r *http.Request) {
    in := r.Context().Value(ctxKeyPostToken).(booking.TokenInput)
    t, err := s.bookings.CreateToken(r.Context(), in)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusCreated, s.toTokenResponse(t))
}

// GET /v1/tokens?party_id=&status=
func (s *Server) listTokens(w http.ResponseWriter, r *http.Request) {
    var f tms.TokenFilter
    q := r.URL.Query()
    if raw := q.Get("party_id"); raw != "" {
        id, err := uuid.Parse(raw)
        if err != nil { badRequest(w, "invalid party_id"); return }
        f.PartyID = &id
    }
    if raw := q.Get("status"); raw != "" {
        st, ok := tms.ParseTokenStatus(raw)
        if !ok { badRequest(w, "invalid status"); return }
        f.Status = st
    }
    list, err := s.bookings.ListTokens(r.Context(), f)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusOK, listResponse[tokenResponse]{Items: s.toTokenResponses(list)})
}

// GET /v1/tokens/{id}
func (s *Server) getToken(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid token id"); return }
    t, err := s.bookings.GetToken(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusOK, s.toTokenResponse(t))
}

// POST /v1/challans loads pending tokens onto a truck.
func (s *Server) postChallan(w http.ResponseWriter, r *http.Request) {
    var req postChallanRequest
    if !decodeJSON(w, r, &req) { return }
    in := booking.ChallanInput{
        TokenIDs: req.TokenIDs, FromCity: req.FromCity, ToCity: req.ToCity,
        TruckNo: req.TruckNo, DriverName: req.DriverName, DriverMobile: req.DriverMobile,
        Hire: req.Hire.Decimal, LoadingHamali: req.LoadingHamali.Decimal,
        UnloadingHamali: req.UnloadingHamali.Decimal, OtherExpenses: req.OtherExpenses.Decimal,
    }
    if raw := strings.TrimSpace(req.Date); raw != "" {
        d, err := ledger.ParseDate(raw)
        if err != nil { badRequest(w, "invalid date"); return }
        in.Date = &d
    }
    c, err := s.bookings.CreateChallan(r.Context(), in)
    if err != nil { s.fail(w, r, err); return }
    _, tokens, err := s.bookings.GetChallan(r.Context(), c.ID)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusCreated, s.toChallanResponse(c, tokens))
}

// GET /v1/challans/{id}
func (s *Server) getChallan(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid challan id"); return }
    c, tokens, err := s.bookings.GetChallan(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusOK, s.toChallanResponse(c, tokens))
}

// POST /v1/bills bills a party's unbilled tokens within [from, to].
func (s *Server) postBill(w http.ResponseWriter, r *http.Request) {
    var req postBillRequest
    if !decodeJSON(w, r, &req) { return }
    if req.PartyID == uuid.Nil { badRequest(w, "party_id is required"); return }
    var from, to time.Time
    var err error
    if from, err = ledger.ParseDate(req.From); err != nil { badRequest(w, "invalid from"); return }
    if to, err = ledger.ParseDate(req.To); err != nil { badRequest(w, "invalid to"); return }
    b, err := s.bookings.CreateBill(r.Context(), booking.BillInput{
        PartyID: req.PartyID, Window: ledger.Window{From: from, To: to}, OldBalance: req.OldBalance.Decimal,
    })
    if err != nil { s.fail(w, r, err); return }
    _, tokens, err := s.bookings.GetBill(r.Context(), b.ID)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusCreated, s.toBillResponse(b, tokens))
}

// GET /v1/bills/{id}
func (s *Server) getBill(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid bill id"); return }
    b, tokens, err := s.bookings.GetBill(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusOK, s.toBillResponse(b, tokens))
}

// GET /v1/bills/{id}.xlsx
func (s *Server) exportBill(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid bill id"); return }
    b, tokens, err := s.bookings.GetBill(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    p, err := s.parties.Get(r.Context(), b.PartyID)
    if err != nil { s.fail(w, r, err); return }
    f, err := export.BillWorkbook(p, b, tokens)
    if err != nil { s.fail(w, r, err); return }
    name := slug.FileName("BILL", p.Name, ".xlsx", strconv.FormatInt(b.BillNo, 10))
    s.sendWorkbook(w, r, name, func(w http.ResponseWriter) error { return export.Write(w, f) })
}
