// Package statement assembles read-only views over bookings and payments:
// the party ledger, the outstanding-by-party report and daily booking totals.
// Nothing here is cached; every call rebuilds from the store.
package statement

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/tms"
)

type Repo interface {
	GetParty(ctx context.Context, id uuid.UUID) (tms.Party, error)
	ListParties(ctx context.Context) ([]tms.Party, error)
	TokensByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Token, error)
	PaymentsByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Payment, error)
	ListTokens(ctx context.Context, f tms.TokenFilter) ([]tms.Token, error)
	ListPayments(ctx context.Context) ([]tms.Payment, error)
}

// Outstanding is one line of the outstanding-by-party report.
type Outstanding struct {
	PartyID     uuid.UUID
	PartyName   string
	Billing     decimal.Decimal
	Payments    decimal.Decimal
	Outstanding decimal.Decimal
}

// DailyBookings totals the tokens booked on one calendar day.
type DailyBookings struct {
	Date   time.Time
	Tokens int
	Weight decimal.Decimal
	Amount decimal.Decimal
}

type Service interface {
	PartyLedger(ctx context.Context, partyID uuid.UUID, opening decimal.Decimal, window *ledger.Window) (tms.Party, ledger.Result, error)
	Outstanding(ctx context.Context) ([]Outstanding, error)
	DailyBookings(ctx context.Context, window *ledger.Window) ([]DailyBookings, int, error)
}

type service struct {
	repo Repo
	log  *slog.Logger
}

func New(repo Repo, log *slog.Logger) Service { return &service{repo: repo, log: log} }

func (s *service) PartyLedger(ctx context.Context, partyID uuid.UUID, opening decimal.Decimal, window *ledger.Window) (tms.Party, ledger.Result, error) {
	if window != nil {
		if err := window.Validate(); err != nil {
			return tms.Party{}, ledger.Result{}, err
		}
	}
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		return tms.Party{}, ledger.Result{}, err
	}
	tokens, err := s.repo.TokensByParty(ctx, partyID)
	if err != nil {
		return tms.Party{}, ledger.Result{}, err
	}
	payments, err := s.repo.PaymentsByParty(ctx, partyID)
	if err != nil {
		return tms.Party{}, ledger.Result{}, err
	}
	bookings := make([]ledger.BookingEntry, 0, len(tokens))
	for _, t := range tokens {
		bookings = append(bookings, t.Booking())
	}
	paid := make([]ledger.PaymentEntry, 0, len(payments))
	for _, p := range payments {
		paid = append(paid, p.Entry())
	}
	res, err := ledger.Build(bookings, paid, opening, window)
	if err != nil {
		return tms.Party{}, ledger.Result{}, err
	}
	if res.Skipped > 0 && s.log != nil {
		s.log.Warn("ledger entries skipped", "party_id", partyID.String(), "skipped", res.Skipped)
	}
	return party, res, nil
}

// Outstanding lists every party with activity, ordered by name.
func (s *service) Outstanding(ctx context.Context) ([]Outstanding, error) {
	parties, err := s.repo.ListParties(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := s.repo.ListTokens(ctx, tms.TokenFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	bookingsBy := make(map[uuid.UUID][]ledger.BookingEntry)
	for _, t := range tokens {
		bookingsBy[t.PartyID] = append(bookingsBy[t.PartyID], t.Booking())
	}
	paymentsBy := make(map[uuid.UUID][]ledger.PaymentEntry)
	for _, p := range payments {
		paymentsBy[p.PartyID] = append(paymentsBy[p.PartyID], p.Entry())
	}

	out := make([]Outstanding, 0, len(parties))
	for _, p := range parties {
		b, pay := bookingsBy[p.ID], paymentsBy[p.ID]
		if len(b) == 0 && len(pay) == 0 {
			continue
		}
		out = append(out, Outstanding{
			PartyID:     p.ID,
			PartyName:   p.Name,
			Billing:     ledger.Summarize(b, nil),
			Payments:    ledger.Summarize(nil, pay).Neg(),
			Outstanding: ledger.Summarize(b, pay),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].PartyName) < strings.ToLower(out[j].PartyName) })
	return out, nil
}

// DailyBookings groups tokens by booking date. The int result counts tokens
// whose date could not be parsed.
func (s *service) DailyBookings(ctx context.Context, window *ledger.Window) ([]DailyBookings, int, error) {
	if window != nil {
		if err := window.Validate(); err != nil {
			return nil, 0, err
		}
	}
	tokens, err := s.repo.ListTokens(ctx, tms.TokenFilter{})
	if err != nil {
		return nil, 0, err
	}
	byDay := make(map[time.Time]*DailyBookings)
	skipped := 0
	for _, t := range tokens {
		d, err := ledger.ParseDate(t.BookedAt)
		if err != nil {
			skipped++
			continue
		}
		if window != nil && !window.Contains(d) {
			continue
		}
		row, ok := byDay[d]
		if !ok {
			row = &DailyBookings{Date: d, Weight: decimal.Zero, Amount: decimal.Zero}
			byDay[d] = row
		}
		row.Tokens++
		row.Weight = row.Weight.Add(t.Weight)
		row.Amount = row.Amount.Add(t.Amount)
	}
	out := make([]DailyBookings, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, skipped, nil
}
