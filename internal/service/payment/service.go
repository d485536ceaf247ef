// Package payment records money received from parties.
package payment

import (
    "context"
    "fmt"
    "log/slog"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/events"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/tms"
)

// DefaultRecentLimit caps recent payment listings when no limit is given.
const DefaultRecentLimit = 50

const maxRecentLimit = 500

type Repo interface {
    GetParty(ctx context.Context, id uuid.UUID) (tms.Party, error)
    // RecentPayments returns payments newest first; a nil partyID means all parties.
    RecentPayments(ctx context.Context, partyID *uuid.UUID, limit int) ([]tms.Payment, error)
    PaymentByIdempotencyKey(ctx context.Context, key string) (tms.Payment, bool, error)
}

type Writer interface {
    // CreatePayment stores p. With a non-empty key, a payment already saved
    // under that key is returned instead and replayed is true.
    CreatePayment(ctx context.Context, p tms.Payment, key string) (saved tms.Payment, replayed bool, err error)
}

type Input struct {
    PartyID uuid.UUID
    // PaidOn is a day-first date; empty means today.
    PaidOn string
    Amount decimal.Decimal
    Method string
    Remark string
}

type Service interface {
    Validate(in Input) (tms.Payment, error)
    Record(ctx context.Context, in Input, idempotencyKey string) (p tms.Payment, replayed bool, err error)
    Recent(ctx context.Context, partyID *uuid.UUID, limit int) ([]tms.Payment, error)
}

type service struct {
    repo   Repo
    writer Writer
    pub    events.Publisher
    log    *slog.Logger
    curr   string
    now    func() time.Time
}

// New builds the payment service. Amounts are rounded to the scale of curr;
// an empty curr means tms.DefaultCurrency.
func New(repo Repo, writer Writer, pub events.Publisher, log *slog.Logger, curr string) Service {
    if curr == "" { curr = tms.DefaultCurrency }
    return &service{repo: repo, writer: writer, pub: pub, log: log, curr: curr, now: time.Now}
}

// Validate checks the input and returns the payment that would be stored,
// with the amount rounded to the currency scale, the date normalized to
// DD/MM/YYYY and the method lowercased.
func (s *service) Validate(in Input) (tms.Payment, error) {
    if in.PartyID == uuid.Nil { return tms.Payment{}, fmt.Errorf("party_id is required: %w", errs.ErrInvalid) }
    amount := tms.Round(s.curr, in.Amount)
    if !amount.IsPositive() { return tms.Payment{}, fmt.Errorf("amount must be > 0 after rounding to %s: %w", s.curr, errs.ErrInvalid) }
    method := ledger.MethodCash
    if strings.TrimSpace(in.Method) != "" {
        m, ok := ledger.ParseMethod(in.Method)
        if !ok { return tms.Payment{}, fmt.Errorf("unknown payment mode %q: %w", in.Method, errs.ErrInvalid) }
        method = m
    }
    paidOn := ledger.DateOf(s.now())
    if raw := strings.TrimSpace(in.PaidOn); raw != "" {
        d, err := ledger.ParseDate(raw)
        if err != nil { return tms.Payment{}, fmt.Errorf("invalid date %q: %w", raw, errs.ErrInvalid) }
        paidOn = d
    }
    return tms.Payment{
        PartyID: in.PartyID,
        PaidOn:  paidOn.Format(ledger.PaymentLayout),
        Amount:  amount,
        Method:  method,
        Remark:  strings.TrimSpace(in.Remark),
    }, nil
}

func (s *service) Record(ctx context.Context, in Input, key string) (tms.Payment, bool, error) {
    key = strings.TrimSpace(key)
    if key != "" {
        if prev, ok, err := s.repo.PaymentByIdempotencyKey(ctx, key); err != nil {
            return tms.Payment{}, false, err
        } else if ok {
            return prev, true, nil
        }
    }
    p, err := s.Validate(in)
    if err != nil { return tms.Payment{}, false, err }
    if _, err := s.repo.GetParty(ctx, p.PartyID); err != nil { return tms.Payment{}, false, err }
    p.ID = uuid.New()
    p.CreatedAt = s.now().UTC()
    saved, replayed, err := s.writer.CreatePayment(ctx, p, key)
    if err != nil { return tms.Payment{}, false, err }
    if !replayed {
        events.Emit(ctx, s.pub, s.log, events.New(events.PaymentRecorded, saved.PartyID, map[string]any{
            "payment_id": saved.ID, "amount": saved.Amount.String(), "mode": saved.Method, "paid_on": saved.PaidOn,
        }))
    }
    return saved, replayed, nil
}

func (s *service) Recent(ctx context.Context, partyID *uuid.UUID, limit int) ([]tms.Payment, error) {
    if limit <= 0 { limit = DefaultRecentLimit }
    if limit > maxRecentLimit { limit = maxRecentLimit }
    return s.repo.RecentPayments(ctx, partyID, limit)
}
