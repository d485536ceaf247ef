// Party master, balance and ledger endpoints.
package v1

import (
    "errors"
    "net/http"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/export"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/slug"
    "github.com/tinoosan/tms/internal/tms"
)

// POST /v1/parties upserts by name: 201 when created, 200 when updated.
func (s *Server) postParty(w http.ResponseWriter, r *http.Request) {
    var req postPartyRequest
    if !decodeJSON(w, r, &req) { return }
    p := tms.Party{Name: req.Name, Address: req.Address, Mobile: req.Mobile, GSTNo: req.GSTNo, Marka: req.Marka}
    if d := req.RatePerKg.ptr(); d != nil { p.RatePerKg = *d }
    if d := req.RatePerParcel.ptr(); d != nil { p.RatePerParcel = *d }
    saved, created, err := s.parties.Save(r.Context(), p)
    if err != nil { s.fail(w, r, err); return }
    status := http.StatusOK
    if created { status = http.StatusCreated }
    toJSON(w, status, s.toPartyResponse(saved))
}

// GET /v1/parties
func (s *Server) listParties(w http.ResponseWriter, r *http.Request) {
    list, err := s.parties.List(r.Context())
    if err != nil { s.fail(w, r, err); return }
    out := listResponse[partyResponse]{Items: make([]partyResponse, 0, len(list))}
    for _, p := range list { out.Items = append(out.Items, s.toPartyResponse(p)) }
    toJSON(w, http.StatusOK, out)
}

// GET /v1/parties/{id}
func (s *Server) getParty(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid party id"); return }
    p, err := s.parties.Get(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    toJSON(w, http.StatusOK, s.toPartyResponse(p))
}

// GET /v1/parties/{id}/balance is the all-time outstanding, independent of any ledger window.
func (s *Server) getPartyBalance(w http.ResponseWriter, r *http.Request) {
    id, err := parseUUIDParam(r, "id")
    if err != nil { badRequest(w, "invalid party id"); return }
    bal, err := s.parties.Balance(r.Context(), id)
    if err != nil { s.fail(w, r, err); return }
    resp := balanceResponse{PartyID: id, Currency: s.curr}
    resp.Balance, resp.BalanceMinor = s.money(bal)
    toJSON(w, http.StatusOK, resp)
}

// buildLedger runs the statement for the validated query and records metrics.
func (s *Server) buildLedger(w http.ResponseWriter, r *http.Request) (tms.Party, ledger.Result, *ledger.Window, bool) {
    q := r.Context().Value(ctxKeyLedgerQuery).(ledgerQuery)
    p, res, err := s.statements.PartyLedger(r.Context(), q.PartyID, q.Opening, q.Window)
    if err != nil {
        switch {
        case errors.Is(err, errs.ErrInvalidRange):
            observeLedger("invalid_range", 0)
        case !errors.Is(err, errs.ErrNotFound):
            observeLedger("error", 0)
        }
        s.fail(w, r, err)
        return tms.Party{}, ledger.Result{}, nil, false
    }
    observeLedger("ok", res.Skipped)
    return p, res, q.Window, true
}

// GET /v1/parties/{id}/ledger?from=&to=&opening=
func (s *Server) getPartyLedger(w http.ResponseWriter, r *http.Request) {
    p, res, win, ok := s.buildLedger(w, r)
    if !ok { return }
    toJSON(w, http.StatusOK, s.toLedgerResponse(p, res, win))
}

// GET /v1/parties/{id}/ledger.xlsx?from=&to=&opening=
func (s *Server) exportPartyLedger(w http.ResponseWriter, r *http.Request) {
    p, res, win, ok := s.buildLedger(w, r)
    if !ok { return }
    f, err := export.LedgerWorkbook(p, res, win)
    if err != nil { s.fail(w, r, err); return }
    s.sendWorkbook(w, r, slug.FileName("Ledger", p.Name, ".xlsx"), func(w http.ResponseWriter) error { return export.Write(w, f) })
}

// sendWorkbook sets download headers and streams the workbook.
func (s *Server) sendWorkbook(w http.ResponseWriter, r *http.Request, name string, write func(http.ResponseWriter) error) {
    w.Header().Set("Content-Type", export.ContentType)
    w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
    if err := write(w); err != nil {
        s.log.Error("write workbook", "path", r.URL.Path, "err", err)
    }
}
