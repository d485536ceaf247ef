package v1

import (
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/service/statement"
    "github.com/tinoosan/tms/internal/tms"
)

// Parties

type postPartyRequest struct {
    Name          string       `json:"name"`
    Address       string       `json:"address"`
    Mobile        string       `json:"mobile"`
    GSTNo         string       `json:"gst_no"`
    Marka         string       `json:"marka"`
    RatePerKg     *flexDecimal `json:"rate_per_kg,omitempty"`
    RatePerParcel *flexDecimal `json:"rate_per_parcel,omitempty"`
}

type partyResponse struct {
    ID                 uuid.UUID `json:"id"`
    Name               string    `json:"name"`
    Address            string    `json:"address"`
    Mobile             string    `json:"mobile"`
    GSTNo              string    `json:"gst_no"`
    Marka              string    `json:"marka"`
    RatePerKg          string    `json:"rate_per_kg"`
    RatePerKgMinor     int64     `json:"rate_per_kg_minor"`
    RatePerParcel      string    `json:"rate_per_parcel"`
    RatePerParcelMinor int64     `json:"rate_per_parcel_minor"`
    CreatedAt          time.Time `json:"created_at"`
}

type balanceResponse struct {
    PartyID      uuid.UUID `json:"party_id"`
    Currency     string    `json:"currency"`
    Balance      string    `json:"balance"`
    BalanceMinor int64     `json:"balance_minor"`
}

// Ledger

// ledgerQuery holds validated query params for the ledger endpoints.
type ledgerQuery struct {
    PartyID uuid.UUID
    Opening decimal.Decimal
    Window  *ledger.Window
}

type ledgerRowResponse struct {
    Date         string `json:"date"`
    Type         string `json:"type"`
    Details      string `json:"details"`
    Debit        string `json:"debit"`
    DebitMinor   int64  `json:"debit_minor"`
    Credit       string `json:"credit"`
    CreditMinor  int64  `json:"credit_minor"`
    Balance      string `json:"balance"`
    BalanceMinor int64  `json:"balance_minor"`
}

type ledgerResponse struct {
    PartyID      uuid.UUID           `json:"party_id"`
    PartyName    string              `json:"party_name"`
    Currency     string              `json:"currency"`
    From         string              `json:"from,omitempty"`
    To           string              `json:"to,omitempty"`
    Opening      string              `json:"opening"`
    OpeningMinor int64               `json:"opening_minor"`
    Closing      string              `json:"closing"`
    ClosingMinor int64               `json:"closing_minor"`
    TotalDebit   string              `json:"total_debit"`
    TotalCredit  string              `json:"total_credit"`
    Skipped      int                 `json:"skipped"`
    Rows         []ledgerRowResponse `json:"rows"`
}

// Masters

type postItemRequest struct {
    Name string `json:"name"`
}

type itemResponse struct {
    ID   uuid.UUID `json:"id"`
    Name string    `json:"name"`
}

type postRateRequest struct {
    PartyID  *uuid.UUID  `json:"party_id,omitempty"`
    FromCity string      `json:"from_city"`
    ToCity   string      `json:"to_city"`
    RateType string      `json:"rate_type"`
    Rate     flexDecimal `json:"rate"`
}

type rateResponse struct {
    ID        uuid.UUID  `json:"id"`
    PartyID   *uuid.UUID `json:"party_id,omitempty"`
    FromCity  string     `json:"from_city"`
    ToCity    string     `json:"to_city"`
    RateType  string     `json:"rate_type"`
    Rate      string     `json:"rate"`
    RateMinor int64      `json:"rate_minor"`
}

// Tokens

type postTokenRequest struct {
    PartyID      uuid.UUID    `json:"party_id"`
    BookedAt     string       `json:"booked_at,omitempty"`
    Consignor    string       `json:"consignor"`
    Consignee    string       `json:"consignee"`
    Marka        string       `json:"marka"`
    FromCity     string       `json:"from_city"`
    ToCity       string       `json:"to_city"`
    ItemName     string       `json:"item_name"`
    Packages     int          `json:"packages"`
    Weight       flexDecimal  `json:"weight"`
    RateType     string       `json:"rate_type,omitempty"`
    Rate         *flexDecimal `json:"rate,omitempty"`
    TruckNo      string       `json:"truck_no"`
    DriverName   string       `json:"driver_name"`
    DriverMobile string       `json:"driver_mobile"`
    Remarks      string       `json:"remarks"`
}

type tokenResponse struct {
    ID           uuid.UUID  `json:"id"`
    TokenNo      int64      `json:"token_no"`
    BookedAt     string     `json:"booked_at"`
    PartyID      uuid.UUID  `json:"party_id"`
    Consignor    string     `json:"consignor"`
    Consignee    string     `json:"consignee"`
    Marka        string     `json:"marka"`
    FromCity     string     `json:"from_city"`
    ToCity       string     `json:"to_city"`
    ItemName     string     `json:"item_name"`
    Packages     int        `json:"packages"`
    Weight       string     `json:"weight"`
    RateType     string     `json:"rate_type"`
    Rate         string     `json:"rate"`
    RateMinor    int64      `json:"rate_minor"`
    Amount       string     `json:"amount"`
    AmountMinor  int64      `json:"amount_minor"`
    TruckNo      string     `json:"truck_no"`
    DriverName   string     `json:"driver_name"`
    DriverMobile string     `json:"driver_mobile"`
    Remarks      string     `json:"remarks"`
    Status       string     `json:"status"`
    ChallanID    *uuid.UUID `json:"challan_id,omitempty"`
    BillID       *uuid.UUID `json:"bill_id,omitempty"`
}

// Challans

type postChallanRequest struct {
    TokenIDs        []uuid.UUID `json:"token_ids"`
    Date            string      `json:"date,omitempty"`
    FromCity        string      `json:"from_city"`
    ToCity          string      `json:"to_city"`
    TruckNo         string      `json:"truck_no"`
    DriverName      string      `json:"driver_name"`
    DriverMobile    string      `json:"driver_mobile"`
    Hire            flexDecimal `json:"hire"`
    LoadingHamali   flexDecimal `json:"loading_hamali"`
    UnloadingHamali flexDecimal `json:"unloading_hamali"`
    OtherExpenses   flexDecimal `json:"other_expenses"`
}

type challanResponse struct {
    ID               uuid.UUID       `json:"id"`
    ChallanNo        int64           `json:"challan_no"`
    Date             string          `json:"date"`
    FromCity         string          `json:"from_city"`
    ToCity           string          `json:"to_city"`
    TruckNo          string          `json:"truck_no"`
    DriverName       string          `json:"driver_name"`
    DriverMobile     string          `json:"driver_mobile"`
    TotalAmount      string          `json:"total_amount"`
    TotalAmountMinor int64           `json:"total_amount_minor"`
    TotalWeight      string          `json:"total_weight"`
    Hire             string          `json:"hire"`
    LoadingHamali    string          `json:"loading_hamali"`
    UnloadingHamali  string          `json:"unloading_hamali"`
    OtherExpenses    string          `json:"other_expenses"`
    Balance          string          `json:"balance"`
    BalanceMinor     int64           `json:"balance_minor"`
    TokenIDs         []uuid.UUID     `json:"token_ids"`
    Tokens           []tokenResponse `json:"tokens,omitempty"`
}

// Bills

type postBillRequest struct {
    PartyID    uuid.UUID   `json:"party_id"`
    From       string      `json:"from"`
    To         string      `json:"to"`
    OldBalance flexDecimal `json:"old_balance"`
}

type billResponse struct {
    ID              uuid.UUID       `json:"id"`
    BillNo          int64           `json:"bill_no"`
    PartyID         uuid.UUID       `json:"party_id"`
    From            string          `json:"from"`
    To              string          `json:"to"`
    CreatedAt       time.Time       `json:"created_at"`
    TotalWeight     string          `json:"total_weight"`
    TotalPackages   int             `json:"total_packages"`
    Subtotal        string          `json:"subtotal"`
    SubtotalMinor   int64           `json:"subtotal_minor"`
    OldBalance      string          `json:"old_balance"`
    OldBalanceMinor int64           `json:"old_balance_minor"`
    Total           string          `json:"total"`
    TotalMinor      int64           `json:"total_minor"`
    TokenIDs        []uuid.UUID     `json:"token_ids"`
    Tokens          []tokenResponse `json:"tokens,omitempty"`
}

// Payments

type postPaymentRequest struct {
    PartyID uuid.UUID   `json:"party_id"`
    PaidOn  string      `json:"paid_on,omitempty"`
    Amount  flexDecimal `json:"amount"`
    Mode    string      `json:"mode,omitempty"`
    Remark  string      `json:"remark,omitempty"`
}

type paymentResponse struct {
    ID          uuid.UUID `json:"id"`
    PartyID     uuid.UUID `json:"party_id"`
    PaidOn      string    `json:"paid_on"`
    Amount      string    `json:"amount"`
    AmountMinor int64     `json:"amount_minor"`
    Mode        string    `json:"mode"`
    Remark      string    `json:"remark,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// Reports

type outstandingRow struct {
    PartyID          uuid.UUID `json:"party_id"`
    PartyName        string    `json:"party_name"`
    Billing          string    `json:"billing"`
    BillingMinor     int64     `json:"billing_minor"`
    Payments         string    `json:"payments"`
    PaymentsMinor    int64     `json:"payments_minor"`
    Outstanding      string    `json:"outstanding"`
    OutstandingMinor int64     `json:"outstanding_minor"`
}

type dailyBookingsRow struct {
    Date        string `json:"date"`
    Tokens      int    `json:"tokens"`
    Weight      string `json:"weight"`
    Amount      string `json:"amount"`
    AmountMinor int64  `json:"amount_minor"`
}

type dailyBookingsResponse struct {
    From    string             `json:"from,omitempty"`
    To      string             `json:"to,omitempty"`
    Skipped int                `json:"skipped"`
    Items   []dailyBookingsRow `json:"items"`
}

type listResponse[T any] struct {
    Items []T `json:"items"`
}

// --- mapping ---

// money renders d at the currency scale together with its minor units.
func (s *Server) money(d decimal.Decimal) (string, int64) {
    units, err := tms.MinorUnits(s.curr, d)
    if err != nil { s.log.Warn("minor units overflow", "amount", d.String(), "err", err) }
    return tms.Format(s.curr, d), units
}

func (s *Server) toPartyResponse(p tms.Party) partyResponse {
    kg, kgMinor := s.money(p.RatePerKg)
    parcel, parcelMinor := s.money(p.RatePerParcel)
    return partyResponse{
        ID: p.ID, Name: p.Name, Address: p.Address, Mobile: p.Mobile, GSTNo: p.GSTNo, Marka: p.Marka,
        RatePerKg: kg, RatePerKgMinor: kgMinor, RatePerParcel: parcel, RatePerParcelMinor: parcelMinor,
        CreatedAt: p.CreatedAt,
    }
}

func (s *Server) toLedgerResponse(p tms.Party, res ledger.Result, w *ledger.Window) ledgerResponse {
    out := ledgerResponse{PartyID: p.ID, PartyName: p.Name, Currency: s.curr, Skipped: res.Skipped, Rows: make([]ledgerRowResponse, 0, len(res.Rows))}
    if w != nil {
        out.From, out.To = w.From.Format(ledger.DisplayLayout), w.To.Format(ledger.DisplayLayout)
    }
    out.Opening, out.OpeningMinor = s.money(res.Opening)
    out.Closing, out.ClosingMinor = s.money(res.Closing)
    out.TotalDebit, _ = s.money(res.TotalDebit())
    out.TotalCredit, _ = s.money(res.TotalCredit())
    for _, r := range res.Rows {
        row := ledgerRowResponse{Date: r.DisplayDate(), Type: string(r.Kind), Details: r.Details}
        row.Debit, row.DebitMinor = s.money(r.Debit)
        row.Credit, row.CreditMinor = s.money(r.Credit)
        row.Balance, row.BalanceMinor = s.money(r.Balance)
        out.Rows = append(out.Rows, row)
    }
    return out
}

func (s *Server) toRateResponse(r tms.Rate) rateResponse {
    out := rateResponse{ID: r.ID, PartyID: r.PartyID, FromCity: r.FromCity, ToCity: r.ToCity, RateType: string(r.RateType)}
    out.Rate, out.RateMinor = s.money(r.Rate)
    return out
}

func (s *Server) toTokenResponse(t tms.Token) tokenResponse {
    out := tokenResponse{
        ID: t.ID, TokenNo: t.TokenNo, BookedAt: t.BookedAt, PartyID: t.PartyID,
        Consignor: t.Consignor, Consignee: t.Consignee, Marka: t.Marka,
        FromCity: t.FromCity, ToCity: t.ToCity, ItemName: t.ItemName,
        Packages: t.Packages, Weight: t.Weight.String(), RateType: string(t.RateType),
        TruckNo: t.TruckNo, DriverName: t.DriverName, DriverMobile: t.DriverMobile, Remarks: t.Remarks,
        Status: string(t.Status), ChallanID: t.ChallanID, BillID: t.BillID,
    }
    out.Rate, out.RateMinor = s.money(t.Rate)
    out.Amount, out.AmountMinor = s.money(t.Amount)
    return out
}

func (s *Server) toTokenResponses(ts []tms.Token) []tokenResponse {
    out := make([]tokenResponse, 0, len(ts))
    for _, t := range ts { out = append(out, s.toTokenResponse(t)) }
    return out
}

func (s *Server) toChallanResponse(c tms.Challan, tokens []tms.Token) challanResponse {
    out := challanResponse{
        ID: c.ID, ChallanNo: c.ChallanNo, Date: c.Date.Format(ledger.DisplayLayout),
        FromCity: c.FromCity, ToCity: c.ToCity, TruckNo: c.TruckNo, DriverName: c.DriverName, DriverMobile: c.DriverMobile,
        TotalWeight: c.TotalWeight.String(), TokenIDs: c.TokenIDs,
    }
    out.TotalAmount, out.TotalAmountMinor = s.money(c.TotalAmount)
    out.Hire, _ = s.money(c.Hire)
    out.LoadingHamali, _ = s.money(c.LoadingHamali)
    out.UnloadingHamali, _ = s.money(c.UnloadingHamali)
    out.OtherExpenses, _ = s.money(c.OtherExpenses)
    out.Balance, out.BalanceMinor = s.money(c.Balance)
    if tokens != nil { out.Tokens = s.toTokenResponses(tokens) }
    return out
}

func (s *Server) toBillResponse(b tms.Bill, tokens []tms.Token) billResponse {
    out := billResponse{
        ID: b.ID, BillNo: b.BillNo, PartyID: b.PartyID,
        From: b.From.Format(ledger.DisplayLayout), To: b.To.Format(ledger.DisplayLayout), CreatedAt: b.CreatedAt,
        TotalWeight: b.TotalWeight.String(), TotalPackages: b.TotalPackages, TokenIDs: b.TokenIDs,
    }
    out.Subtotal, out.SubtotalMinor = s.money(b.Subtotal)
    out.OldBalance, out.OldBalanceMinor = s.money(b.OldBalance)
    out.Total, out.TotalMinor = s.money(b.Total)
    if tokens != nil { out.Tokens = s.toTokenResponses(tokens) }
    return out
}

func (s *Server) toPaymentResponse(p tms.Payment) paymentResponse {
    out := paymentResponse{ID: p.ID, PartyID: p.PartyID, PaidOn: p.PaidOn, Mode: string(p.Method), Remark: p.Remark, CreatedAt: p.CreatedAt}
    out.Amount, out.AmountMinor = s.money(p.Amount)
    return out
}

func (s *Server) toOutstandingRow(o statement.Outstanding) outstandingRow {
    out := outstandingRow{PartyID: o.PartyID, PartyName: o.PartyName}
    out.Billing, out.BillingMinor = s.money(o.Billing)
    out.Payments, out.PaymentsMinor = s.money(o.Payments)
    out.Outstanding, out.OutstandingMinor = s.money(o.Outstanding)
    return out
}
