package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the services.
//
// Migrations that create the expected schema live under db/migrations. Money
// columns hold minor units of the store currency; weights are numeric and
// cross the wire as text so no float conversion happens.

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/shopspring/decimal"

    "github.com/tinoosan/tms/internal/errs"
    "github.com/tinoosan/tms/internal/ledger"
    "github.com/tinoosan/tms/internal/tms"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
    pool *pgxpool.Pool
    curr string
}

// Open establishes a pgx pool using the provided connection string. Amounts
// are converted to and from minor units of currency.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    if currency == "" { currency = tms.DefaultCurrency }
    return &Store{pool: pool, curr: currency}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts a demo party and a general route rate for local testing.
func (s *Store) SeedDev(ctx context.Context) (tms.Party, error) {
    p := tms.Party{ID: uuid.New(), Name: "Demo Party " + uuid.NewString()[:8], Marka: "DP", RatePerKg: decimal.NewFromInt(3), RatePerParcel: decimal.NewFromInt(50)}
    p, err := s.SaveParty(ctx, p)
    if err != nil { return tms.Party{}, err }
    _, err = s.CreateRate(ctx, tms.Rate{ID: uuid.New(), FromCity: "DELHI", ToCity: "JAIPUR", RateType: tms.RateTypeKG, Rate: decimal.NewFromFloat(2.5)})
    return p, err
}

func (s *Store) minor(d decimal.Decimal) (int64, error) { return tms.MinorUnits(s.curr, d) }

func (s *Store) dec(units int64) decimal.Decimal {
    d, _ := tms.FromMinorUnits(s.curr, units)
    return d
}

func isUniqueViolation(err error) bool {
    var pgErr *pgconn.PgError
    return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type scanner interface{ Scan(dest ...any) error }

// --- parties ---

const partyCols = `id, name, address, mobile, gst_no, marka, rate_per_kg_minor, rate_per_parcel_minor, created_at`

func (s *Store) scanParty(row scanner) (tms.Party, error) {
    var p tms.Party
    var kg, parcel int64
    if err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Mobile, &p.GSTNo, &p.Marka, &kg, &parcel, &p.CreatedAt); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return tms.Party{}, errs.ErrNotFound }
        return tms.Party{}, err
    }
    p.RatePerKg, p.RatePerParcel = s.dec(kg), s.dec(parcel)
    return p, nil
}

func (s *Store) ListParties(ctx context.Context) ([]tms.Party, error) {
    rows, err := s.pool.Query(ctx, `select `+partyCols+` from parties order by lower(name)`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]tms.Party, 0)
    for rows.Next() {
        p, err := s.scanParty(rows)
        if err != nil { return nil, err }
        out = append(out, p)
    }
    return out, rows.Err()
}

func (s *Store) GetParty(ctx context.Context, id uuid.UUID) (tms.Party, error) {
    return s.scanParty(s.pool.QueryRow(ctx, `select `+partyCols+` from parties where id = $1`, id))
}

func (s *Store) PartyByName(ctx context.Context, name string) (tms.Party, error) {
    return s.scanParty(s.pool.QueryRow(ctx, `select `+partyCols+` from parties where lower(name) = lower($1)`, strings.TrimSpace(name)))
}

// SaveParty inserts or fully replaces the party with p.ID.
func (s *Store) SaveParty(ctx context.Context, p tms.Party) (tms.Party, error) {
    kg, err := s.minor(p.RatePerKg)
    if err != nil { return tms.Party{}, err }
    parcel, err := s.minor(p.RatePerParcel)
    if err != nil { return tms.Party{}, err }
    _, err = s.pool.Exec(ctx, `
        insert into parties (id, name, address, mobile, gst_no, marka, rate_per_kg_minor, rate_per_parcel_minor, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        on conflict (id) do update set
            name=excluded.name, address=excluded.address, mobile=excluded.mobile, gst_no=excluded.gst_no,
            marka=excluded.marka, rate_per_kg_minor=excluded.rate_per_kg_minor, rate_per_parcel_minor=excluded.rate_per_parcel_minor
    `, p.ID, p.Name, p.Address, p.Mobile, p.GSTNo, p.Marka, kg, parcel, p.CreatedAt)
    if isUniqueViolation(err) { return tms.Party{}, fmt.Errorf("party name %q taken: %w", p.Name, errs.ErrConflict) }
    if err != nil { return tms.Party{}, err }
    return p, nil
}

// --- masters ---

func (s *Store) ListItems(ctx context.Context) ([]tms.Item, error) {
    rows, err := s.pool.Query(ctx, `select id, name from items order by lower(name)`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]tms.Item, 0)
    for rows.Next() {
        var it tms.Item
        if err := rows.Scan(&it.ID, &it.Name); err != nil { return nil, err }
        out = append(out, it)
    }
    return out, rows.Err()
}

func (s *Store) ItemByName(ctx context.Context, name string) (tms.Item, error) {
    var it tms.Item
    err := s.pool.QueryRow(ctx, `select id, name from items where lower(name) = lower($1)`, strings.TrimSpace(name)).Scan(&it.ID, &it.Name)
    if errors.Is(err, pgx.ErrNoRows) { return tms.Item{}, errs.ErrNotFound }
    return it, err
}

// CreateItem inserts it unless an item with the same name exists, and returns the stored row.
func (s *Store) CreateItem(ctx context.Context, it tms.Item) (tms.Item, error) {
    if _, err := s.pool.Exec(ctx, `insert into items (id, name) values ($1,$2) on conflict do nothing`, it.ID, it.Name); err != nil {
        return tms.Item{}, err
    }
    return s.ItemByName(ctx, it.Name)
}

func (s *Store) ListRates(ctx context.Context) ([]tms.Rate, error) {
    rows, err := s.pool.Query(ctx, `select id, party_id, from_city, to_city, rate_type, rate_minor from rates order by seq`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]tms.Rate, 0)
    for rows.Next() {
        var r tms.Rate
        var minor int64
        if err := rows.Scan(&r.ID, &r.PartyID, &r.FromCity, &r.ToCity, &r.RateType, &minor); err != nil { return nil, err }
        r.Rate = s.dec(minor)
        out = append(out, r)
    }
    return out, rows.Err()
}

func (s *Store) CreateRate(ctx context.Context, r tms.Rate) (tms.Rate, error) {
    minor, err := s.minor(r.Rate)
    if err != nil { return tms.Rate{}, err }
    _, err = s.pool.Exec(ctx, `
        insert into rates (id, party_id, from_city, to_city, rate_type, rate_minor)
        values ($1,$2,$3,$4,$5,$6)
    `, r.ID, r.PartyID, r.FromCity, r.ToCity, r.RateType, minor)
    if err != nil { return tms.Rate{}, err }
    return r, nil
}

// --- tokens ---

const tokenCols = `id, token_no, booked_at, party_id, consignor, consignee, marka, from_city, to_city, item_name,
    packages, weight::text, rate_type, rate_minor, amount_minor, truck_no, driver_name, driver_mobile, remarks,
    status, challan_id, bill_id`

func (s *Store) scanToken(row scanner) (tms.Token, error) {
    var t tms.Token
    var weight string
    var rate, amount int64
    err := row.Scan(&t.ID, &t.TokenNo, &t.BookedAt, &t.PartyID, &t.Consignor, &t.Consignee, &t.Marka, &t.FromCity, &t.ToCity, &t.ItemName,
        &t.Packages, &weight, &t.RateType, &rate, &amount, &t.TruckNo, &t.DriverName, &t.DriverMobile, &t.Remarks,
        &t.Status, &t.ChallanID, &t.BillID)
    if errors.Is(err, pgx.ErrNoRows) { return tms.Token{}, errs.ErrNotFound }
    if err != nil { return tms.Token{}, err }
    t.Weight, err = decimal.NewFromString(weight)
    if err != nil { return tms.Token{}, fmt.Errorf("token %d weight: %w", t.TokenNo, err) }
    t.Rate, t.Amount = s.dec(rate), s.dec(amount)
    return t, nil
}

func (s *Store) queryTokens(ctx context.Context, sql string, args ...any) ([]tms.Token, error) {
    rows, err := s.pool.Query(ctx, sql, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]tms.Token, 0)
    for rows.Next() {
        t, err := s.scanToken(rows)
        if err != nil { return nil, err }
        out = append(out, t)
    }
    return out, rows.Err()
}

// ListTokens returns matching tokens ordered by token number.
func (s *Store) ListTokens(ctx context.Context, f tms.TokenFilter) ([]tms.Token, error) {
    var where []string
    var args []any
    if f.PartyID != nil {
        args = append(args, *f.PartyID)
        where = append(where, fmt.Sprintf("party_id = $%d", len(args)))
    }
    if f.Status != "" {
        args = append(args, f.Status)
        where = append(where, fmt.Sprintf("status = $%d", len(args)))
    }
    sql := `select ` + tokenCols + ` from tokens`
    if len(where) > 0 { sql += ` where ` + strings.Join(where, " and ") }
    return s.queryTokens(ctx, sql+` order by token_no`, args...)
}

func (s *Store) TokensByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Token, error) {
    return s.ListTokens(ctx, tms.TokenFilter{PartyID: &partyID})
}

func (s *Store) GetToken(ctx context.Context, id uuid.UUID) (tms.Token, error) {
    return s.scanToken(s.pool.QueryRow(ctx, `select `+tokenCols+` from tokens where id = $1`, id))
}

func (s *Store) TokensByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]tms.Token, error) {
    out := make(map[uuid.UUID]tms.Token, len(ids))
    if len(ids) == 0 { return out, nil }
    list, err := s.queryTokens(ctx, `select `+tokenCols+` from tokens where id = any($1)`, ids)
    if err != nil { return nil, err }
    for _, t := range list { out[t.ID] = t }
    return out, nil
}

// CreateToken assigns the next token number under an advisory lock.
func (s *Store) CreateToken(ctx context.Context, t tms.Token) (tms.Token, error) {
    rate, err := s.minor(t.Rate)
    if err != nil { return tms.Token{}, err }
    amount, err := s.minor(t.Amount)
    if err != nil { return tms.Token{}, err }
    tx, err := s.pool.Begin(ctx)
    if err != nil { return tms.Token{}, err }
    defer func() { _ = tx.Rollback(ctx) }()
    if t.TokenNo, err = nextNumber(ctx, tx, "tokens", "token_no"); err != nil { return tms.Token{}, err }
    _, err = tx.Exec(ctx, `
        insert into tokens (id, token_no, booked_at, party_id, consignor, consignee, marka, from_city, to_city, item_name,
            packages, weight, rate_type, rate_minor, amount_minor, truck_no, driver_name, driver_mobile, remarks, status)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::numeric,$13,$14,$15,$16,$17,$18,$19,$20)
    `, t.ID, t.TokenNo, t.BookedAt, t.PartyID, t.Consignor, t.Consignee, t.Marka, t.FromCity, t.ToCity, t.ItemName,
        t.Packages, t.Weight.String(), t.RateType, rate, amount, t.TruckNo, t.DriverName, t.DriverMobile, t.Remarks, t.Status)
    if err != nil { return tms.Token{}, fmt.Errorf("insert token: %w", err) }
    if err := tx.Commit(ctx); err != nil { return tms.Token{}, err }
    return t, nil
}

// --- challans ---

const challanCols = `id, challan_no, challan_date, from_city, to_city, truck_no, driver_name, driver_mobile,
    total_amount_minor, total_weight::text, hire_minor, loading_hamali_minor, unloading_hamali_minor,
    other_expenses_minor, balance_minor`

// CreateChallan inserts the challan and moves its tokens from PENDING to LOADED atomically.
func (s *Store) CreateChallan(ctx context.Context, c tms.Challan) (tms.Challan, error) {
    var m [6]int64
    for i, d := range []decimal.Decimal{c.TotalAmount, c.Hire, c.LoadingHamali, c.UnloadingHamali, c.OtherExpenses, c.Balance} {
        v, err := s.minor(d)
        if err != nil { return tms.Challan{}, err }
        m[i] = v
    }
    tx, err := s.pool.Begin(ctx)
    if err != nil { return tms.Challan{}, err }
    defer func() { _ = tx.Rollback(ctx) }()
    if err := lockStatuses(ctx, tx, c.TokenIDs, func(st tms.TokenStatus) bool { return st == tms.TokenPending }); err != nil {
        return tms.Challan{}, err
    }
    if c.ChallanNo, err = nextNumber(ctx, tx, "challans", "challan_no"); err != nil { return tms.Challan{}, err }
    if _, err := tx.Exec(ctx, `
        insert into challans (id, challan_no, challan_date, from_city, to_city, truck_no, driver_name, driver_mobile,
            total_amount_minor, total_weight, hire_minor, loading_hamali_minor, unloading_hamali_minor, other_expenses_minor, balance_minor)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::numeric,$11,$12,$13,$14,$15)
    `, c.ID, c.ChallanNo, c.Date, c.FromCity, c.ToCity, c.TruckNo, c.DriverName, c.DriverMobile,
        m[0], c.TotalWeight.String(), m[1], m[2], m[3], m[4], m[5]); err != nil {
        return tms.Challan{}, fmt.Errorf("insert challan: %w", err)
    }
    for i, id := range c.TokenIDs {
        if _, err := tx.Exec(ctx, `insert into challan_tokens (challan_id, token_id, position) values ($1,$2,$3)`, c.ID, id, i); err != nil {
            return tms.Challan{}, err
        }
    }
    if _, err := tx.Exec(ctx, `
        update tokens set status = $1, challan_id = $2, truck_no = coalesce(nullif($3, ''), truck_no)
        where id = any($4)
    `, tms.TokenLoaded, c.ID, c.TruckNo, c.TokenIDs); err != nil {
        return tms.Challan{}, err
    }
    if err := tx.Commit(ctx); err != nil { return tms.Challan{}, err }
    return c, nil
}

func (s *Store) GetChallan(ctx context.Context, id uuid.UUID) (tms.Challan, error) {
    var c tms.Challan
    var weight string
    var m [6]int64
    err := s.pool.QueryRow(ctx, `select `+challanCols+` from challans where id = $1`, id).Scan(
        &c.ID, &c.ChallanNo, &c.Date, &c.FromCity, &c.ToCity, &c.TruckNo, &c.DriverName, &c.DriverMobile,
        &m[0], &weight, &m[1], &m[2], &m[3], &m[4], &m[5])
    if errors.Is(err, pgx.ErrNoRows) { return tms.Challan{}, errs.ErrNotFound }
    if err != nil { return tms.Challan{}, err }
    c.TotalWeight, _ = decimal.NewFromString(weight)
    c.TotalAmount, c.Hire, c.LoadingHamali = s.dec(m[0]), s.dec(m[1]), s.dec(m[2])
    c.UnloadingHamali, c.OtherExpenses, c.Balance = s.dec(m[3]), s.dec(m[4]), s.dec(m[5])
    c.Date = ledger.DateOf(c.Date)
    c.TokenIDs, err = s.linkedTokens(ctx, `select token_id from challan_tokens where challan_id = $1 order by position`, id)
    return c, err
}

// --- bills ---

const billCols = `id, bill_no, party_id, from_date, to_date, created_at, total_weight::text, total_packages,
    subtotal_minor, old_balance_minor, total_minor`

// CreateBill inserts the bill and marks its tokens BILLED atomically.
func (s *Store) CreateBill(ctx context.Context, b tms.Bill) (tms.Bill, error) {
    var m [3]int64
    for i, d := range []decimal.Decimal{b.Subtotal, b.OldBalance, b.Total} {
        v, err := s.minor(d)
        if err != nil { return tms.Bill{}, err }
        m[i] = v
    }
    tx, err := s.pool.Begin(ctx)
    if err != nil { return tms.Bill{}, err }
    defer func() { _ = tx.Rollback(ctx) }()
    if err := lockStatuses(ctx, tx, b.TokenIDs, tms.TokenStatus.Billable); err != nil { return tms.Bill{}, err }
    if b.BillNo, err = nextNumber(ctx, tx, "bills", "bill_no"); err != nil { return tms.Bill{}, err }
    if _, err := tx.Exec(ctx, `
        insert into bills (id, bill_no, party_id, from_date, to_date, created_at, total_weight, total_packages,
            subtotal_minor, old_balance_minor, total_minor)
        values ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9,$10,$11)
    `, b.ID, b.BillNo, b.PartyID, b.From, b.To, b.CreatedAt, b.TotalWeight.String(), b.TotalPackages, m[0], m[1], m[2]); err != nil {
        return tms.Bill{}, fmt.Errorf("insert bill: %w", err)
    }
    for i, id := range b.TokenIDs {
        if _, err := tx.Exec(ctx, `insert into bill_tokens (bill_id, token_id, position) values ($1,$2,$3)`, b.ID, id, i); err != nil {
            return tms.Bill{}, err
        }
    }
    if _, err := tx.Exec(ctx, `update tokens set status = $1, bill_id = $2 where id = any($3)`, tms.TokenBilled, b.ID, b.TokenIDs); err != nil {
        return tms.Bill{}, err
    }
    if err := tx.Commit(ctx); err != nil { return tms.Bill{}, err }
    return b, nil
}

func (s *Store) GetBill(ctx context.Context, id uuid.UUID) (tms.Bill, error) {
    var b tms.Bill
    var weight string
    var m [3]int64
    err := s.pool.QueryRow(ctx, `select `+billCols+` from bills where id = $1`, id).Scan(
        &b.ID, &b.BillNo, &b.PartyID, &b.From, &b.To, &b.CreatedAt, &weight, &b.TotalPackages, &m[0], &m[1], &m[2])
    if errors.Is(err, pgx.ErrNoRows) { return tms.Bill{}, errs.ErrNotFound }
    if err != nil { return tms.Bill{}, err }
    b.TotalWeight, _ = decimal.NewFromString(weight)
    b.Subtotal, b.OldBalance, b.Total = s.dec(m[0]), s.dec(m[1]), s.dec(m[2])
    b.From, b.To = ledger.DateOf(b.From), ledger.DateOf(b.To)
    b.TokenIDs, err = s.linkedTokens(ctx, `select token_id from bill_tokens where bill_id = $1 order by position`, id)
    return b, err
}

func (s *Store) linkedTokens(ctx context.Context, sql string, id uuid.UUID) ([]uuid.UUID, error) {
    rows, err := s.pool.Query(ctx, sql, id)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]uuid.UUID, 0)
    for rows.Next() {
        var tid uuid.UUID
        if err := rows.Scan(&tid); err != nil { return nil, err }
        out = append(out, tid)
    }
    return out, rows.Err()
}

// --- payments ---

const paymentCols = `id, party_id, paid_on, amount_minor, method, remark, created_at`

func (s *Store) scanPayment(row scanner) (tms.Payment, error) {
    var p tms.Payment
    var minor int64
    err := row.Scan(&p.ID, &p.PartyID, &p.PaidOn, &minor, &p.Method, &p.Remark, &p.CreatedAt)
    if errors.Is(err, pgx.ErrNoRows) { return tms.Payment{}, errs.ErrNotFound }
    if err != nil { return tms.Payment{}, err }
    p.Amount = s.dec(minor)
    return p, nil
}

func (s *Store) queryPayments(ctx context.Context, sql string, args ...any) ([]tms.Payment, error) {
    rows, err := s.pool.Query(ctx, sql, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]tms.Payment, 0)
    for rows.Next() {
        p, err := s.scanPayment(rows)
        if err != nil { return nil, err }
        out = append(out, p)
    }
    return out, rows.Err()
}

func (s *Store) PaymentsByParty(ctx context.Context, partyID uuid.UUID) ([]tms.Payment, error) {
    return s.queryPayments(ctx, `select `+paymentCols+` from payments where party_id = $1 order by seq`, partyID)
}

func (s *Store) ListPayments(ctx context.Context) ([]tms.Payment, error) {
    return s.queryPayments(ctx, `select `+paymentCols+` from payments order by seq`)
}

func (s *Store) RecentPayments(ctx context.Context, partyID *uuid.UUID, limit int) ([]tms.Payment, error) {
    if partyID != nil {
        return s.queryPayments(ctx, `select `+paymentCols+` from payments where party_id = $1 order by seq desc limit $2`, *partyID, limit)
    }
    return s.queryPayments(ctx, `select `+paymentCols+` from payments order by seq desc limit $1`, limit)
}

func (s *Store) PaymentByIdempotencyKey(ctx context.Context, key string) (tms.Payment, bool, error) {
    p, err := s.scanPayment(s.pool.QueryRow(ctx, `
        select `+paymentCols+` from payments
        where id = (select payment_id from payment_idempotency where key = $1)
    `, key))
    if errors.Is(err, errs.ErrNotFound) { return tms.Payment{}, false, nil }
    if err != nil { return tms.Payment{}, false, err }
    return p, true, nil
}

// CreatePayment inserts p and, when key is set, claims the key in the same
// transaction. Losing the race for the key rolls back and returns the winner.
func (s *Store) CreatePayment(ctx context.Context, p tms.Payment, key string) (tms.Payment, bool, error) {
    minor, err := s.minor(p.Amount)
    if err != nil { return tms.Payment{}, false, err }
    tx, err := s.pool.Begin(ctx)
    if err != nil { return tms.Payment{}, false, err }
    defer func() { _ = tx.Rollback(ctx) }()
    if _, err := tx.Exec(ctx, `
        insert into payments (id, party_id, paid_on, amount_minor, method, remark, created_at)
        values ($1,$2,$3,$4,$5,$6,$7)
    `, p.ID, p.PartyID, p.PaidOn, minor, p.Method, p.Remark, p.CreatedAt); err != nil {
        return tms.Payment{}, false, fmt.Errorf("insert payment: %w", err)
    }
    if key != "" {
        ct, err := tx.Exec(ctx, `insert into payment_idempotency (key, payment_id) values ($1,$2) on conflict (key) do nothing`, key, p.ID)
        if err != nil { return tms.Payment{}, false, err }
        if ct.RowsAffected() == 0 {
            _ = tx.Rollback(ctx)
            prev, ok, err := s.PaymentByIdempotencyKey(ctx, key)
            if err != nil { return tms.Payment{}, false, err }
            if !ok { return tms.Payment{}, false, fmt.Errorf("idempotency key %q: %w", key, errs.ErrConflict) }
            return prev, true, nil
        }
    }
    if err := tx.Commit(ctx); err != nil { return tms.Payment{}, false, err }
    return p, false, nil
}

// --- helpers ---

// nextNumber serializes numbering per table with a transaction-scoped advisory
// lock and returns max(col)+1.
func nextNumber(ctx context.Context, tx pgx.Tx, table, col string) (int64, error) {
    if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock(hashtext($1))`, table); err != nil { return 0, err }
    var n int64
    err := tx.QueryRow(ctx, `select coalesce(max(`+col+`), 0) + 1 from `+table).Scan(&n)
    return n, err
}

// lockStatuses row-locks the tokens and checks every one exists and passes allowed.
func lockStatuses(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, allowed func(tms.TokenStatus) bool) error {
    rows, err := tx.Query(ctx, `select id, token_no, status from tokens where id = any($1) for update`, ids)
    if err != nil { return err }
    defer rows.Close()
    seen := 0
    for rows.Next() {
        var id uuid.UUID
        var no int64
        var st tms.TokenStatus
        if err := rows.Scan(&id, &no, &st); err != nil { return err }
        if !allowed(st) { return fmt.Errorf("token %d is %s: %w", no, st, errs.ErrConflict) }
        seen++
    }
    if err := rows.Err(); err != nil { return err }
    if seen != len(ids) { return fmt.Errorf("unknown token in selection: %w", errs.ErrNotFound) }
    return nil
}
