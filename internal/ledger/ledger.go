// Package ledger turns a party's bookings and payments into a dated statement
// with a running balance. It is pure: callers fetch entries from storage and
// pass them in, and nothing here is cached or persisted.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/errs"
)

// Kind labels a statement row by the entry it came from.
type Kind string

const (
	// KindBooking rows carry an amount owed by the party (debit).
	KindBooking Kind = "TOKEN"
	// KindPayment rows carry an amount received from the party (credit).
	KindPayment Kind = "PAYMENT"
)

// Method is how a payment was received.
type Method string

const (
	MethodCash   Method = "cash"
	MethodBank   Method = "bank"
	MethodUPI    Method = "upi"
	MethodCheque Method = "cheque"
	MethodOther  Method = "other"
)

// Methods lists the accepted payment methods in display order.
var Methods = []Method{MethodCash, MethodBank, MethodUPI, MethodCheque, MethodOther}

// ParseMethod matches s case-insensitively against the known methods.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// ErrInvalidRange is returned by Build when the window starts after it ends.
var ErrInvalidRange = fmt.Errorf("ledger window from is after to: %w", errs.ErrInvalidRange)

// BookingEntry is one amount owed by a party.
type BookingEntry struct {
	AccountID  uuid.UUID
	OccurredAt string
	// Reference identifies the booking to a reader, e.g. the token number.
	Reference string
	Amount    decimal.Decimal
}

// PaymentEntry is one amount received from a party.
type PaymentEntry struct {
	AccountID  uuid.UUID
	OccurredAt string
	Amount     decimal.Decimal
	Method     Method
	Remark     string
}

// Row is one line of a built statement.
type Row struct {
	Date    time.Time
	Kind    Kind
	Details string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// DisplayDate renders the row date as DD-MM-YYYY.
func (r Row) DisplayDate() string { return r.Date.Format(DisplayLayout) }

// Window is an inclusive date range. Both ends are compared as calendar dates.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow builds a window and rejects from > to.
func NewWindow(from, to time.Time) (Window, error) {
	w := Window{From: DateOf(from), To: DateOf(to)}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate reports ErrInvalidRange when From is after To.
func (w Window) Validate() error {
	if DateOf(w.From).After(DateOf(w.To)) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether d falls on or between the window's ends.
func (w Window) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(DateOf(w.From)) && !d.After(DateOf(w.To))
}

// Result is the output of Build.
type Result struct {
	Rows    []Row
	Opening decimal.Decimal
	Closing decimal.Decimal
	// Skipped counts entries dropped because their timestamp did not parse.
	Skipped int
}

// TotalDebit sums the debit column.
func (r Result) TotalDebit() decimal.Decimal {
	sum := decimal.Zero
	for _, row := range r.Rows {
		sum = sum.Add(row.Debit)
	}
	return sum
}

// TotalCredit sums the credit column.
func (r Result) TotalCredit() decimal.Decimal {
	sum := decimal.Zero
	for _, row := range r.Rows {
		sum = sum.Add(row.Credit)
	}
	return sum
}

// Build merges bookings and payments into date-ordered rows with a running
// balance starting at opening. Entries whose OccurredAt cannot be parsed are
// left out and counted in Result.Skipped. A nil window includes every date.
//
// Rows on the same date keep bookings ahead of payments, and each kind keeps
// its input order.
func Build(bookings []BookingEntry, payments []PaymentEntry, opening decimal.Decimal, window *Window) (Result, error) {
	if window != nil {
		if err := window.Validate(); err != nil {
			return Result{}, err
		}
	}

	skipped := 0
	rows := make([]Row, 0, len(bookings)+len(payments))
	for _, b := range bookings {
		d, err := ParseDate(b.OccurredAt)
		if err != nil {
			skipped++
			continue
		}
		if window != nil && !window.Contains(d) {
			continue
		}
		rows = append(rows, Row{Date: d, Kind: KindBooking, Details: bookingDetails(b), Debit: b.Amount, Credit: decimal.Zero})
	}
	for _, p := range payments {
		d, err := ParseDate(p.OccurredAt)
		if err != nil {
			skipped++
			continue
		}
		if window != nil && !window.Contains(d) {
			continue
		}
		rows = append(rows, Row{Date: d, Kind: KindPayment, Details: paymentDetails(p), Debit: decimal.Zero, Credit: p.Amount})
	}

	// bookings were appended first, so a stable sort on date alone yields the
	// booking-before-payment tie order
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	balance := opening
	for i := range rows {
		balance = balance.Add(rows[i].Debit).Sub(rows[i].Credit)
		rows[i].Balance = balance
	}
	return Result{Rows: rows, Opening: opening, Closing: balance, Skipped: skipped}, nil
}

// Summarize returns the all-time outstanding amount: bookings minus payments.
// Unlike Build it neither filters by date nor drops malformed timestamps.
func Summarize(bookings []BookingEntry, payments []PaymentEntry) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bookings {
		total = total.Add(b.Amount)
	}
	for _, p := range payments {
		total = total.Sub(p.Amount)
	}
	return total
}

func bookingDetails(b BookingEntry) string {
	return "Token #" + b.Reference
}

func paymentDetails(p PaymentEntry) string {
	m := p.Method
	if m == "" {
		m = MethodOther
	}
	s := "Payment (" + strings.ToUpper(string(m)) + ")"
	if r := strings.TrimSpace(p.Remark); r != "" {
		s += " - " + r
	}
	return s
}
