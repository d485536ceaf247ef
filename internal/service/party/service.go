// Package party implements the party master: upsert by unique name, lookups,
// and the all-time outstanding balance.
package party

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/tms"
)

type Repo interface {
    ListParties(ctx context.Context) ([]tms.Party, error)
    GetParty(ctx context.Context, id uuid.UUID) (tms.Party, error)
    PartyByName(ctx context.Context, name string) (tms.Party, error)
    TokensByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Token, error)
    PaymentsByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Payment, error)
}

type Writer interface {
    SaveParty(ctx context.Context, p tms.Party) (tms.Party, error)
}

type Service interface {
    ValidateSave(p tms.Party) error
    // Save inserts p, or replaces the party with the same name. created reports which.
    Save(ctx context.Context, p tms.Party) (saved tms.Party, created bool, err error)
    List(ctx context.Context) ([]tms.Party, error)
    Get(ctx context.Context, id uuid.UUID) (tms.Party, error)
    Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

type service struct {
    repo   Repo
    writer Writer
    curr   string
}

// New builds the party service. Default rates are rounded to the scale of
// curr; an empty curr means tms.DefaultCurrency.
func New(repo Repo, writer Writer, curr string) Service {
    if curr == "" { curr = tms.DefaultCurrency }
    return &service{repo: repo, writer: writer, curr: curr}
}

func (s *service) ValidateSave(p tms.Party) error {
    if strings.TrimSpace(p.Name) == "" {
        return fmt.Errorf("name is required: %w", errs.ErrInvalid)
    }
    if p.RatePerKg.IsNegative() || p.RatePerParcel.IsNegative() {
        return fmt.Errorf("default rates must be >= 0: %w", errs.ErrInvalid)
    }
    return nil
}

func (s *service) Save(ctx context.Context, p tms.Party) (tms.Party, bool, error) {
    if err := s.ValidateSave(p); err != nil { return tms.Party{}, false, err }
    p.Name = strings.TrimSpace(p.Name)
    p.Mobile = strings.TrimSpace(p.Mobile)
    p.GSTNo = strings.ToUpper(strings.TrimSpace(p.GSTNo))
    p.Marka = strings.TrimSpace(p.Marka)
    p.RatePerKg = tms.Round(s.curr, p.RatePerKg)
    p.RatePerParcel = tms.Round(s.curr, p.RatePerParcel)

    existing, err := s.repo.PartyByName(ctx, p.Name)
    switch {
    case err == nil:
        p.ID = existing.ID
        p.CreatedAt = existing.CreatedAt
        saved, err := s.writer.SaveParty(ctx, p)
        return saved, false, err
    case errors.Is(err, errs.ErrNotFound):
        p.ID = uuid.New()
        p.CreatedAt = time.Now().UTC()
        saved, err := s.writer.SaveParty(ctx, p)
        return saved, true, err
    default:
        return tms.Party{}, false, err
    }
}

func (s *service) List(ctx context.Context) ([]tms.Party, error) { return s.repo.ListParties(ctx) }

func (s *service) Get(ctx context.Context, id uuid.UUID) (tms.Party, error) {
    if id == uuid.Nil { return tms.Party{}, errs.ErrInvalid }
    return s.repo.GetParty(ctx, id)
}

// Balance is every token amount minus every payment for the party, with no
// date filtering. It can differ from a ledger's closing balance when stored
// timestamps are malformed.
func (s *service) Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
    if _, err := s.Get(ctx, id); err != nil { return decimal.Zero, err }
    tokens, err := s.repo.TokensByParty(ctx, id)
    if err != nil { return decimal.Zero, err }
    payments, err := s.repo.PaymentsByParty(ctx, id)
    if err != nil { return decimal.Zero, err }
    bookings := make([]ledger.BookingEntry, 0, len(tokens))
    for _, t := range tokens { bookings = append(bookings, t.Booking()) }
    paid := make([]ledger.PaymentEntry, 0, len(payments))
    for _, p := range payments { paid = append(paid, p.Entry()) }
    return ledger.Summarize(bookings, paid), nil
}
