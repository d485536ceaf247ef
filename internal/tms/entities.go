// Package tms holds the transport back-office entities: parties, masters,
// tokens (bookings), challans (truck loads), bills and payments.
package tms

import (
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/ledger"
)

// RateType selects how a token's freight is charged.
type RateType string

const (
    // RateTypeKG charges weight x rate.
    RateTypeKG RateType = "KG"
    // RateTypeParcel charges packages x rate.
    RateTypeParcel RateType = "PARCEL"
)

// ParseRateType accepts KG or PARCEL in any case.
func ParseRateType(s string) (RateType, bool) {
    switch RateType(strings.ToUpper(strings.TrimSpace(s))) {
    case RateTypeKG:
        return RateTypeKG, true
    case RateTypeParcel:
        return RateTypeParcel, true
    }
    return "", false
}

// TokenStatus tracks a booking through loading and billing.
type TokenStatus string

const (
    TokenPending   TokenStatus = "PENDING"
    TokenLoaded    TokenStatus = "LOADED"
    TokenDelivered TokenStatus = "DELIVERED"
    TokenBilled    TokenStatus = "BILLED"
)

// ParseTokenStatus accepts a known status in any case.
func ParseTokenStatus(s string) (TokenStatus, bool) {
    st := TokenStatus(strings.ToUpper(strings.TrimSpace(s)))
    switch st {
    case TokenPending, TokenLoaded, TokenDelivered, TokenBilled:
        return st, true
    }
    return "", false
}

// Billable reports whether a token in this status may still go on a bill.
func (s TokenStatus) Billable() bool { return s == TokenPending || s == TokenLoaded }

// Party is a customer account that bookings are charged to.
type Party struct {
    ID      uuid.UUID
    Name    string
    Address string
    Mobile  string
    GSTNo   string
    // Marka is the consignment marking printed on this party's packages.
    Marka         string
    RatePerKg     decimal.Decimal
    RatePerParcel decimal.Decimal
    CreatedAt     time.Time
}

// Item is a goods description offered when booking.
type Item struct {
    ID   uuid.UUID
    Name string
}

// Rate is a route tariff. A nil PartyID makes it the general rate for the route.
type Rate struct {
    ID       uuid.UUID
    PartyID  *uuid.UUID
    FromCity string
    ToCity   string
    RateType RateType
    Rate     decimal.Decimal
}

// Token is a single booking (bilty) charged to a party.
type Token struct {
    ID        uuid.UUID
    TokenNo   int64
    // BookedAt is stored as written, in TokenLayout.
    BookedAt     string
    PartyID      uuid.UUID
    Consignor    string
    Consignee    string
    Marka        string
    FromCity     string
    ToCity       string
    ItemName     string
    Packages     int
    Weight       decimal.Decimal
    RateType     RateType
    Rate         decimal.Decimal
    Amount       decimal.Decimal
    TruckNo      string
    DriverName   string
    DriverMobile string
    Remarks      string
    Status       TokenStatus
    ChallanID    *uuid.UUID
    BillID       *uuid.UUID
}

// Booking maps the token onto a ledger debit.
func (t Token) Booking() ledger.BookingEntry {
    return ledger.BookingEntry{
        AccountID:  t.PartyID,
        OccurredAt: t.BookedAt,
        Reference:  strconv.FormatInt(t.TokenNo, 10),
        Amount:     t.Amount,
    }
}

// Challan is a truck load made up of pending tokens.
type Challan struct {
    ID              uuid.UUID
    ChallanNo       int64
    Date            time.Time
    FromCity        string
    ToCity          string
    TruckNo         string
    DriverName      string
    DriverMobile    string
    TotalAmount     decimal.Decimal
    TotalWeight     decimal.Decimal
    Hire            decimal.Decimal
    LoadingHamali   decimal.Decimal
    UnloadingHamali decimal.Decimal
    OtherExpenses   decimal.Decimal
    // Balance is TotalAmount less hire, hamali and other expenses.
    Balance  decimal.Decimal
    TokenIDs []uuid.UUID
}

// Bill groups a party's unbilled tokens over a date range.
type Bill struct {
    ID            uuid.UUID
    BillNo        int64
    PartyID       uuid.UUID
    From          time.Time
    To            time.Time
    CreatedAt     time.Time
    TotalWeight   decimal.Decimal
    TotalPackages int
    Subtotal      decimal.Decimal
    OldBalance    decimal.Decimal
    Total         decimal.Decimal
    TokenIDs      []uuid.UUID
}

// Payment is money received from a party.
type Payment struct {
    ID      uuid.UUID
    PartyID uuid.UUID
    // PaidOn is stored as entered, normally in PaymentLayout.
    PaidOn    string
    Amount    decimal.Decimal
    Method    ledger.Method
    Remark    string
    CreatedAt time.Time
}

// Entry maps the payment onto a ledger credit.
func (p Payment) Entry() ledger.PaymentEntry {
    return ledger.PaymentEntry{
        AccountID:  p.PartyID,
        OccurredAt: p.PaidOn,
        Amount:     p.Amount,
        Method:     p.Method,
        Remark:     p.Remark,
    }
}

// TokenFilter narrows token listings. Zero values match everything.
type TokenFilter struct {
    PartyID *uuid.UUID
    Status  TokenStatus
}

// Match reports whether t passes the filter.
func (f TokenFilter) Match(t Token) bool {
    if f.PartyID != nil && t.PartyID != *f.PartyID {
        return false
    }
    if f.Status != "" && t.Status != f.Status {
        return false
    }
    return true
}

// City normalizes a city name the way route rates are keyed.
func City(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Freight computes a token amount for the given rate type.
func Freight(rt RateType, weight decimal.Decimal, packages int, rate decimal.Decimal) decimal.Decimal {
    if rt == RateTypeParcel {
        return rate.Mul(decimal.NewFromInt(int64(packages)))
    }
    return rate.Mul(weight)
}
