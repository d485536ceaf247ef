package v1

import (
    "net/http"

    "github.com/tinoosan/tms/internal/ledger"
)

// GET /v1/reports/outstanding
func (s *Server) outstandingReport(w http.ResponseWriter, r *http.Request) {
    rows, err := s.statements.Outstanding(r.Context())
    if err != nil { s.fail(w, r, err); return }
    out := listResponse[outstandingRow]{Items: make([]outstandingRow, 0, len(rows))}
    for _, o := range rows { out.Items = append(out.Items, s.toOutstandingRow(o)) }
    toJSON(w, http.StatusOK, out)
}

// GET /v1/reports/daily-bookings?from=&to=
func (s *Server) dailyBookingsReport(w http.ResponseWriter, r *http.Request) {
    win, err := parseWindow(r.URL.Query())
    if err != nil { s.fail(w, r, err); return }
    days, skipped, err := s.statements.DailyBookings(r.Context(), win)
    if err != nil { s.fail(w, r, err); return }
    out := dailyBookingsResponse{Skipped: skipped, Items: make([]dailyBookingsRow, 0, len(days))}
    if win != nil {
        out.From, out.To = win.From.Format(ledger.DisplayLayout), win.To.Format(ledger.DisplayLayout)
    }
    for _, d := range days {
        row := dailyBookingsRow{Date: d.Date.Format(ledger.DisplayLayout), Tokens: d.Tokens, Weight: d.Weight.String()}
        row.Amount, row.AmountMinor = s.money(d.Amount)
        out.Items = append(out.Items, row)
    }
    toJSON(w, http.StatusOK, out)
}
