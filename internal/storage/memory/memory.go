package memory

// Package memory provides a simple in-memory implementation used for development and tests.
// Numbering (token, challan, bill) and status moves happen under the write lock,
// which gives the same all-or-nothing behaviour as the postgres transactions.
import (
    "context"
    "fmt"
    "sort"
    "strings"
    "sync"

    "github.com/google/uuid"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/tms"
)

// Store is an in-memory implementation of the repositories and writers used by the services.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
    mu       sync.RWMutex
    parties  map[uuid.UUID]tms.Party
    items    map[uuid.UUID]tms.Item
    rates    []tms.Rate
    tokens   map[uuid.UUID]tms.Token
    challans map[uuid.UUID]tms.Challan
    bills    map[uuid.UUID]tms.Bill
    payments map[uuid.UUID]tms.Payment
    // insertion order, used for stable listings
    paymentOrder []uuid.UUID
    // Idempotency: key -> paymentID
    paymentIdem map[string]uuid.UUID

    lastTokenNo   int64
    lastChallanNo int64
    lastBillNo    int64
}

// New constructs an empty in-memory store.
func New() *Store {
    s := &Store{}
    s.Reset()
    return s
}

func (s *Store) Reset() {
    s.mu.Lock()
    s.parties = map[uuid.UUID]tms.Party{}
    s.items = map[uuid.UUID]tms.Item{}
    s.rates = nil
    s.tokens = map[uuid.UUID]tms.Token{}
    s.challans = map[uuid.UUID]tms.Challan{}
    s.bills = map[uuid.UUID]tms.Bill{}
    s.payments = map[uuid.UUID]tms.Payment{}
    s.paymentOrder = nil
    s.paymentIdem = map[string]uuid.UUID{}
    s.lastTokenNo, s.lastChallanNo, s.lastBillNo = 0, 0, 0
    s.mu.Unlock()
}

// Seed helpers for local dev/tests. They store values as given, including
// timestamps the services would reject.
func (s *Store) SeedParty(p tms.Party) { s.mu.Lock(); s.parties[p.ID] = p; s.mu.Unlock() }

func (s *Store) SeedToken(t tms.Token) {
    s.mu.Lock(); defer s.mu.Unlock()
    if t.TokenNo == 0 { t.TokenNo = s.lastTokenNo + 1 }
    if t.TokenNo > s.lastTokenNo { s.lastTokenNo = t.TokenNo }
    s.tokens[t.ID] = t
}

func (s *Store) SeedPayment(p tms.Payment) {
    s.mu.Lock(); defer s.mu.Unlock()
    s.payments[p.ID] = p
    s.paymentOrder = append(s.paymentOrder, p.ID)
}

// Ready always succeeds for the in-memory store.
func (s *Store) Ready(context.Context) error { return nil }

// --- parties ---

func (s *Store) ListParties(_ context.Context) ([]tms.Party, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Party, 0, len(s.parties))
    for _, p := range s.parties { out = append(out, p) }
    sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
    return out, nil
}

func (s *Store) GetParty(_ context.Context, id uuid.UUID) (tms.Party, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    p, ok := s.parties[id]
    if !ok { return tms.Party{}, errs.ErrNotFound }
    return p, nil
}

// PartyByName matches case-insensitively on the trimmed name.
func (s *Store) PartyByName(_ context.Context, name string) (tms.Party, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    name = strings.TrimSpace(name)
    for _, p := range s.parties {
        if strings.EqualFold(p.Name, name) { return p, nil }
    }
    return tms.Party{}, errs.ErrNotFound
}

func (s *Store) SaveParty(_ context.Context, p tms.Party) (tms.Party, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    for id, other := range s.parties {
        if id != p.ID && strings.EqualFold(other.Name, p.Name) {
            return tms.Party{}, fmt.Errorf("party name %q taken: %w", p.Name, errs.ErrConflict)
        }
    }
    s.parties[p.ID] = p
    return p, nil
}

// --- masters ---

func (s *Store) ListItems(_ context.Context) ([]tms.Item, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Item, 0, len(s.items))
    for _, it := range s.items { out = append(out, it) }
    sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
    return out, nil
}

func (s *Store) ItemByName(_ context.Context, name string) (tms.Item, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    for _, it := range s.items {
        if strings.EqualFold(it.Name, strings.TrimSpace(name)) { return it, nil }
    }
    return tms.Item{}, errs.ErrNotFound
}

func (s *Store) CreateItem(_ context.Context, it tms.Item) (tms.Item, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    for _, other := range s.items {
        if strings.EqualFold(other.Name, it.Name) { return other, nil }
    }
    s.items[it.ID] = it
    return it, nil
}

func (s *Store) ListRates(_ context.Context) ([]tms.Rate, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Rate, len(s.rates))
    copy(out, s.rates)
    return out, nil
}

func (s *Store) CreateRate(_ context.Context, r tms.Rate) (tms.Rate, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    s.rates = append(s.rates, r)
    return r, nil
}

// --- tokens ---

// ListTokens returns matching tokens ordered by token number.
func (s *Store) ListTokens(_ context.Context, f tms.TokenFilter) ([]tms.Token, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Token, 0)
    for _, t := range s.tokens {
        if f.Match(t) { out = append(out, t) }
    }
    sortTokens(out)
    return out, nil
}

func (s *Store) TokensByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Token, error) {
    return s.ListTokens(ctx, tms.TokenFilter{PartyID: &partyID})
}

func (s *Store) GetToken(_ context.Context, id uuid.UUID) (tms.Token, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    t, ok := s.tokens[id]
    if !ok { return tms.Token{}, errs.ErrNotFound }
    return t, nil
}

func (s *Store) TokensByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]tms.Token, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make(map[uuid.UUID]tms.Token, len(ids))
    for _, id := range ids {
        if t, ok := s.tokens[id]; ok { out[id] = t }
    }
    return out, nil
}

func (s *Store) CreateToken(_ context.Context, t tms.Token) (tms.Token, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if _, ok := s.parties[t.PartyID]; !ok { return tms.Token{}, errs.ErrNotFound }
    s.lastTokenNo++
    t.TokenNo = s.lastTokenNo
    s.tokens[t.ID] = t
    return t, nil
}

// --- challans ---

func (s *Store) CreateChallan(_ context.Context, c tms.Challan) (tms.Challan, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if err := s.checkStatusLocked(c.TokenIDs, func(st tms.TokenStatus) bool { return st == tms.TokenPending }); err != nil {
        return tms.Challan{}, err
    }
    s.lastChallanNo++
    c.ChallanNo = s.lastChallanNo
    c.TokenIDs = append([]uuid.UUID(nil), c.TokenIDs...)
    for _, id := range c.TokenIDs {
        t := s.tokens[id]
        t.Status = tms.TokenLoaded
        cid := c.ID
        t.ChallanID = &cid
        if c.TruckNo != "" { t.TruckNo = c.TruckNo }
        s.tokens[id] = t
    }
    s.challans[c.ID] = c
    return c, nil
}

func (s *Store) GetChallan(_ context.Context, id uuid.UUID) (tms.Challan, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    c, ok := s.challans[id]
    if !ok { return tms.Challan{}, errs.ErrNotFound }
    c.TokenIDs = append([]uuid.UUID(nil), c.TokenIDs...)
    return c, nil
}

// --- bills ---

func (s *Store) CreateBill(_ context.Context, b tms.Bill) (tms.Bill, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if err := s.checkStatusLocked(b.TokenIDs, tms.TokenStatus.Billable); err != nil {
        return tms.Bill{}, err
    }
    s.lastBillNo++
    b.BillNo = s.lastBillNo
    b.TokenIDs = append([]uuid.UUID(nil), b.TokenIDs...)
    for _, id := range b.TokenIDs {
        t := s.tokens[id]
        t.Status = tms.TokenBilled
        bid := b.ID
        t.BillID = &bid
        s.tokens[id] = t
    }
    s.bills[b.ID] = b
    return b, nil
}

func (s *Store) GetBill(_ context.Context, id uuid.UUID) (tms.Bill, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    b, ok := s.bills[id]
    if !ok { return tms.Bill{}, errs.ErrNotFound }
    b.TokenIDs = append([]uuid.UUID(nil), b.TokenIDs...)
    return b, nil
}

// checkStatusLocked verifies every id exists and passes allowed. Caller must hold s.mu.
func (s *Store) checkStatusLocked(ids []uuid.UUID, allowed func(tms.TokenStatus) bool) error {
    for _, id := range ids {
        t, ok := s.tokens[id]
        if !ok { return fmt.Errorf("token %s: %w", id, errs.ErrNotFound) }
        if !allowed(t.Status) {
            return fmt.Errorf("token %d is %s: %w", t.TokenNo, t.Status, errs.ErrConflict)
        }
    }
    return nil
}

// --- payments ---

func (s *Store) PaymentsByParty(_ context.Context, partyID uuid.UUID) ([]tms.Payment, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Payment, 0)
    for _, id := range s.paymentOrder {
        if p := s.payments[id]; p.PartyID == partyID { out = append(out, p) }
    }
    return out, nil
}

func (s *Store) ListPayments(_ context.Context) ([]tms.Payment, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Payment, 0, len(s.paymentOrder))
    for _, id := range s.paymentOrder { out = append(out, s.payments[id]) }
    return out, nil
}

// RecentPayments walks insertion order backwards, newest first.
func (s *Store) RecentPayments(_ context.Context, partyID *uuid.UUID, limit int) ([]tms.Payment, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    out := make([]tms.Payment, 0)
    for i := len(s.paymentOrder) - 1; i >= 0 && len(out) < limit; i-- {
        p := s.payments[s.paymentOrder[i]]
        if partyID != nil && p.PartyID != *partyID { continue }
        out = append(out, p)
    }
    return out, nil
}

func (s *Store) PaymentByIdempotencyKey(_ context.Context, key string) (tms.Payment, bool, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    if id, ok := s.paymentIdem[key]; ok {
        if p, ok := s.payments[id]; ok { return p, true, nil }
    }
    return tms.Payment{}, false, nil
}

func (s *Store) CreatePayment(_ context.Context, p tms.Payment, key string) (tms.Payment, bool, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if key != "" {
        if id, ok := s.paymentIdem[key]; ok { return s.payments[id], true, nil }
    }
    if _, ok := s.parties[p.PartyID]; !ok { return tms.Payment{}, false, errs.ErrNotFound }
    s.payments[p.ID] = p
    s.paymentOrder = append(s.paymentOrder, p.ID)
    if key != "" { s.paymentIdem[key] = p.ID }
    return p, false, nil
}

func sortTokens(ts []tms.Token) {
    sort.Slice(ts, func(i, j int) bool { return ts[i].TokenNo < ts[j].TokenNo })
}
