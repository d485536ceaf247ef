// Package booking covers the freight side of the business: item and rate
// masters, token booking, loading tokens onto challans, and billing.
package booking

import (
    "context"
    "errors"
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

type Repo interface {
    GetParty(ctx context.Context, id uuid.UUID) (tms.Party, error)
    ListItems(ctx context.Context) ([]tms.Item, error)
    ItemByName(ctx context.Context, name string) (tms.Item, error)
    ListRates(ctx context.Context) ([]tms.Rate, error)
    ListTokens(ctx context.Context, f tms.TokenFilter) ([]tms.Token, error)
    GetToken(ctx context.Context, id uuid.UUID) (tms.Token, error)
    TokensByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]tms.Token, error)
    GetChallan(ctx context.Context, id uuid.UUID) (tms.Challan, error)
    GetBill(ctx context.Context, id uuid.UUID) (tms.Bill, error)
}

// Writer persists bookings. Stores assign TokenNo, ChallanNo and BillNo
// (max + 1) inside the write, and CreateChallan/CreateBill move the linked
// tokens' status in the same transaction, failing with errs.ErrConflict when
// a token is no longer in a permitted status.
type Writer interface {
    CreateItem(ctx context.Context, it tms.Item) (tms.Item, error)
    CreateRate(ctx context.Context, r tms.Rate) (tms.Rate, error)
    CreateToken(ctx context.Context, t tms.Token) (tms.Token, error)
    CreateChallan(ctx context.Context, c tms.Challan) (tms.Challan, error)
    CreateBill(ctx context.Context, b tms.Bill) (tms.Bill, error)
}

// TokenInput is a booking request. A nil Rate is resolved from the rate
// master and then the party defaults; a nil BookedAt means now.
type TokenInput struct {
    PartyID      uuid.UUID
    BookedAt     *time.Time
    Consignor    string
    Consignee    string
    Marka        string
    FromCity     string
    ToCity       string
    ItemName     string
    Packages     int
    Weight       decimal.Decimal
    RateType     tms.RateType
    Rate         *decimal.Decimal
    TruckNo      string
    DriverName   string
    DriverMobile string
    Remarks      string
}

// ChallanInput loads pending tokens onto a truck. Empty cities default to the
// first token's route; a nil Date means today.
type ChallanInput struct {
    TokenIDs        []uuid.UUID
    Date            *time.Time
    FromCity        string
    ToCity          string
    TruckNo         string
    DriverName      string
    DriverMobile    string
    Hire            decimal.Decimal
    LoadingHamali   decimal.Decimal
    UnloadingHamali decimal.Decimal
    OtherExpenses   decimal.Decimal
}

type BillInput struct {
    PartyID    uuid.UUID
    Window     ledger.Window
    OldBalance decimal.Decimal
}

type Service interface {
    CreateItem(ctx context.Context, name string) (item tms.Item, created bool, err error)
    ListItems(ctx context.Context) ([]tms.Item, error)
    CreateRate(ctx context.Context, r tms.Rate) (tms.Rate, error)
    ListRates(ctx context.Context) ([]tms.Rate, error)
    ResolveRate(ctx context.Context, party tms.Party, from, to string, rt tms.RateType) (decimal.Decimal, error)

    CreateToken(ctx context.Context, in TokenInput) (tms.Token, error)
    ListTokens(ctx context.Context, f tms.TokenFilter) ([]tms.Token, error)
    GetToken(ctx context.Context, id uuid.UUID) (tms.Token, error)

    CreateChallan(ctx context.Context, in ChallanInput) (tms.Challan, error)
    GetChallan(ctx context.Context, id uuid.UUID) (tms.Challan, []tms.Token, error)

    CreateBill(ctx context.Context, in BillInput) (tms.Bill, error)
    GetBill(ctx context.Context, id uuid.UUID) (tms.Bill, []tms.Token, error)
}

type service struct {
    repo   Repo
    writer Writer
    pub    events.Publisher
    log    *slog.Logger
    curr   string
}

// New builds the booking service. Rates, freight and expenses are rounded to
// the scale of curr before they are written; an empty curr means
// tms.DefaultCurrency.
func New(repo Repo, writer Writer, pub events.Publisher, log *slog.Logger, curr string) Service {
    if curr == "" { curr = tms.DefaultCurrency }
    return &service{repo: repo, writer: writer, pub: pub, log: log, curr: curr}
}

func (s *service) round(d decimal.Decimal) decimal.Decimal { return tms.Round(s.curr, d) }

// --- masters ---

func (s *service) CreateItem(ctx context.Context, name string) (tms.Item, bool, error) {
    name = strings.TrimSpace(name)
    if name == "" { return tms.Item{}, false, fmt.Errorf("item name is required: %w", errs.ErrInvalid) }
    existing, err := s.repo.ItemByName(ctx, name)
    if err == nil { return existing, false, nil }
    if !errors.Is(err, errs.ErrNotFound) { return tms.Item{}, false, err }
    it, err := s.writer.CreateItem(ctx, tms.Item{ID: uuid.New(), Name: name})
    return it, err == nil, err
}

func (s *service) ListItems(ctx context.Context) ([]tms.Item, error) { return s.repo.ListItems(ctx) }

func (s *service) CreateRate(ctx context.Context, r tms.Rate) (tms.Rate, error) {
    r.FromCity = tms.City(r.FromCity)
    r.ToCity = tms.City(r.ToCity)
    if r.FromCity == "" || r.ToCity == "" {
        return tms.Rate{}, fmt.Errorf("from_city and to_city are required: %w", errs.ErrInvalid)
    }
    rt, ok := tms.ParseRateType(string(r.RateType))
    if !ok { return tms.Rate{}, fmt.Errorf("rate_type must be KG or PARCEL: %w", errs.ErrInvalid) }
    r.RateType = rt
    r.Rate = s.round(r.Rate)
    if r.Rate.IsNegative() { return tms.Rate{}, fmt.Errorf("rate must be >= 0: %w", errs.ErrInvalid) }
    if r.PartyID != nil {
        if _, err := s.repo.GetParty(ctx, *r.PartyID); err != nil { return tms.Rate{}, err }
    }
    r.ID = uuid.New()
    return s.writer.CreateRate(ctx, r)
}

func (s *service) ListRates(ctx context.Context) ([]tms.Rate, error) { return s.repo.ListRates(ctx) }

// ResolveRate picks the party's route rate, then the general route rate, then
// the party default for the rate type.
func (s *service) ResolveRate(ctx context.Context, party tms.Party, from, to string, rt tms.RateType) (decimal.Decimal, error) {
    rates, err := s.repo.ListRates(ctx)
    if err != nil { return decimal.Zero, err }
    from, to = tms.City(from), tms.City(to)
    var general *tms.Rate
    for i := range rates {
        r := rates[i]
        if r.FromCity != from || r.ToCity != to || r.RateType != rt { continue }
        if r.PartyID != nil && *r.PartyID == party.ID { return r.Rate, nil }
        if r.PartyID == nil && general == nil { general = &rates[i] }
    }
    if general != nil { return general.Rate, nil }
    def := party.RatePerKg
    if rt == tms.RateTypeParcel { def = party.RatePerParcel }
    if def.IsPositive() { return def, nil }
    return decimal.Zero, fmt.Errorf("no %s rate for %s -> %s: %w", rt, from, to, errs.ErrUnprocessable)
}

// --- tokens ---

func (s *service) CreateToken(ctx context.Context, in TokenInput) (tms.Token, error) {
    if in.PartyID == uuid.Nil { return tms.Token{}, fmt.Errorf("party_id is required: %w", errs.ErrInvalid) }
    if in.Packages < 1 { return tms.Token{}, fmt.Errorf("packages must be >= 1: %w", errs.ErrInvalid) }
    if in.Weight.IsNegative() { return tms.Token{}, fmt.Errorf("weight must be >= 0: %w", errs.ErrInvalid) }
    rt := tms.RateTypeKG
    if in.RateType != "" {
        parsed, ok := tms.ParseRateType(string(in.RateType))
        if !ok { return tms.Token{}, fmt.Errorf("rate_type must be KG or PARCEL: %w", errs.ErrInvalid) }
        rt = parsed
    }
    if in.Rate != nil && in.Rate.IsNegative() { return tms.Token{}, fmt.Errorf("rate must be >= 0: %w", errs.ErrInvalid) }

    party, err := s.repo.GetParty(ctx, in.PartyID)
    if err != nil { return tms.Token{}, err }

    var rate decimal.Decimal
    if in.Rate != nil {
        rate = *in.Rate
    } else if rate, err = s.ResolveRate(ctx, party, in.FromCity, in.ToCity, rt); err != nil {
        return tms.Token{}, err
    }
    rate = s.round(rate)

    bookedAt := time.Now()
    if in.BookedAt != nil { bookedAt = *in.BookedAt }
    marka := strings.TrimSpace(in.Marka)
    if marka == "" { marka = party.Marka }

    t := tms.Token{
        ID:           uuid.New(),
        BookedAt:     bookedAt.Format(ledger.TokenLayout),
        PartyID:      party.ID,
        Consignor:    strings.TrimSpace(in.Consignor),
        Consignee:    strings.TrimSpace(in.Consignee),
        Marka:        marka,
        FromCity:     tms.City(in.FromCity),
        ToCity:       tms.City(in.ToCity),
        ItemName:     strings.TrimSpace(in.ItemName),
        Packages:     in.Packages,
        Weight:       in.Weight,
        RateType:     rt,
        Rate:         rate,
        Amount:       s.round(tms.Freight(rt, in.Weight, in.Packages, rate)),
        TruckNo:      strings.ToUpper(strings.TrimSpace(in.TruckNo)),
        DriverName:   strings.TrimSpace(in.DriverName),
        DriverMobile: strings.TrimSpace(in.DriverMobile),
        Remarks:      strings.TrimSpace(in.Remarks),
        Status:       tms.TokenPending,
    }
    created, err := s.writer.CreateToken(ctx, t)
    if err != nil { return tms.Token{}, err }
    events.Emit(ctx, s.pub, s.log, events.New(events.TokenBooked, created.PartyID, map[string]any{
        "token_id": created.ID, "token_no": created.TokenNo, "amount": created.Amount.String(),
    }))
    return created, nil
}

func (s *service) ListTokens(ctx context.Context, f tms.TokenFilter) ([]tms.Token, error) {
    return s.repo.ListTokens(ctx, f)
}

func (s *service) GetToken(ctx context.Context, id uuid.UUID) (tms.Token, error) {
    if id == uuid.Nil { return tms.Token{}, errs.ErrInvalid }
    return s.repo.GetToken(ctx, id)
}

// --- challans ---

func (s *service) CreateChallan(ctx context.Context, in ChallanInput) (tms.Challan, error) {
    ids := unique(in.TokenIDs)
    if len(ids) == 0 { return tms.Challan{}, fmt.Errorf("select at least one token: %w", errs.ErrInvalid) }
    in.Hire, in.LoadingHamali = s.round(in.Hire), s.round(in.LoadingHamali)
    in.UnloadingHamali, in.OtherExpenses = s.round(in.UnloadingHamali), s.round(in.OtherExpenses)
    for _, d := range []decimal.Decimal{in.Hire, in.LoadingHamali, in.UnloadingHamali, in.OtherExpenses} {
        if d.IsNegative() { return tms.Challan{}, fmt.Errorf("expenses must be >= 0: %w", errs.ErrInvalid) }
    }
    found, err := s.repo.TokensByIDs(ctx, ids)
    if err != nil { return tms.Challan{}, err }
    totalAmount, totalWeight := decimal.Zero, decimal.Zero
    for _, id := range ids {
        t, ok := found[id]
        if !ok { return tms.Challan{}, fmt.Errorf("token %s: %w", id, errs.ErrNotFound) }
        if t.Status != tms.TokenPending {
            return tms.Challan{}, fmt.Errorf("token %d is %s: %w", t.TokenNo, t.Status, errs.ErrConflict)
        }
        totalAmount = totalAmount.Add(s.round(t.Amount))
        totalWeight = totalWeight.Add(t.Weight)
    }
    first := found[ids[0]]
    from, to := tms.City(in.FromCity), tms.City(in.ToCity)
    if from == "" { from = first.FromCity }
    if to == "" { to = first.ToCity }
    date := time.Now().UTC()
    if in.Date != nil { date = *in.Date }

    c := tms.Challan{
        ID:              uuid.New(),
        Date:            ledger.DateOf(date),
        FromCity:        from,
        ToCity:          to,
        TruckNo:         strings.ToUpper(strings.TrimSpace(in.TruckNo)),
        DriverName:      strings.TrimSpace(in.DriverName),
        DriverMobile:    strings.TrimSpace(in.DriverMobile),
        TotalAmount:     totalAmount,
        TotalWeight:     totalWeight,
        Hire:            in.Hire,
        LoadingHamali:   in.LoadingHamali,
        UnloadingHamali: in.UnloadingHamali,
        OtherExpenses:   in.OtherExpenses,
        Balance:         totalAmount.Sub(in.Hire).Sub(in.LoadingHamali).Sub(in.UnloadingHamali).Sub(in.OtherExpenses),
        TokenIDs:        ids,
    }
    created, err := s.writer.CreateChallan(ctx, c)
    if err != nil { return tms.Challan{}, err }
    events.Emit(ctx, s.pub, s.log, events.New(events.ChallanCreated, uuid.Nil, map[string]any{
        "challan_id": created.ID, "challan_no": created.ChallanNo, "tokens": len(created.TokenIDs), "balance": created.Balance.String(),
    }))
    return created, nil
}

func (s *service) GetChallan(ctx context.Context, id uuid.UUID) (tms.Challan, []tms.Token, error) {
    c, err := s.repo.GetChallan(ctx, id)
    if err != nil { return tms.Challan{}, nil, err }
    tokens, err := s.ordered(ctx, c.TokenIDs)
    return c, tokens, err
}

// --- bills ---

func (s *service) CreateBill(ctx context.Context, in BillInput) (tms.Bill, error) {
    if err := in.Window.Validate(); err != nil { return tms.Bill{}, err }
    party, err := s.repo.GetParty(ctx, in.PartyID)
    if err != nil { return tms.Bill{}, err }
    pid := party.ID
    tokens, err := s.repo.ListTokens(ctx, tms.TokenFilter{PartyID: &pid})
    if err != nil { return tms.Bill{}, err }

    b := tms.Bill{
        ID:          uuid.New(),
        PartyID:     party.ID,
        From:        ledger.DateOf(in.Window.From),
        To:          ledger.DateOf(in.Window.To),
        CreatedAt:   time.Now().UTC(),
        TotalWeight: decimal.Zero,
        Subtotal:    decimal.Zero,
        OldBalance:  s.round(in.OldBalance),
    }
    skipped := 0
    for _, t := range tokens {
        if !t.Status.Billable() { continue }
        d, err := ledger.ParseDate(t.BookedAt)
        if err != nil { skipped++; continue }
        if !in.Window.Contains(d) { continue }
        b.TokenIDs = append(b.TokenIDs, t.ID)
        b.TotalWeight = b.TotalWeight.Add(t.Weight)
        b.TotalPackages += t.Packages
        b.Subtotal = b.Subtotal.Add(s.round(t.Amount))
    }
    if skipped > 0 && s.log != nil {
        s.log.Warn("tokens with unparseable dates left off bill", "party_id", party.ID.String(), "skipped", skipped)
    }
    if len(b.TokenIDs) == 0 {
        return tms.Bill{}, fmt.Errorf("no unbilled tokens in range: %w", errs.ErrUnprocessable)
    }
    b.Total = b.Subtotal.Add(b.OldBalance)
    created, err := s.writer.CreateBill(ctx, b)
    if err != nil { return tms.Bill{}, err }
    events.Emit(ctx, s.pub, s.log, events.New(events.BillCreated, created.PartyID, map[string]any{
        "bill_id": created.ID, "bill_no": created.BillNo, "total": created.Total.String(),
    }))
    return created, nil
}

func (s *service) GetBill(ctx context.Context, id uuid.UUID) (tms.Bill, []tms.Token, error) {
    b, err := s.repo.GetBill(ctx, id)
    if err != nil { return tms.Bill{}, nil, err }
    tokens, err := s.ordered(ctx, b.TokenIDs)
    return b, tokens, err
}

// ordered loads tokens and returns them in the order of ids.
func (s *service) ordered(ctx context.Context, ids []uuid.UUID) ([]tms.Token, error) {
    m, err := s.repo.TokensByIDs(ctx, ids)
    if err != nil { return nil, err }
    out := make([]tms.Token, 0, len(ids))
    for _, id := range ids {
        if t, ok := m[id]; ok { out = append(out, t) }
    }
    return out, nil
}

func unique(ids []uuid.UUID) []uuid.UUID {
    seen := make(map[uuid.UUID]struct{}, len(ids))
    out := make([]uuid.UUID, 0, len(ids))
    for _, id := range ids {
        if id == uuid.Nil { continue }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
