package statement_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/service/statement"
	"github.com/tinoosan/tms/internal/storage/memory"
	"github.com/tinoosan/tms/internal/tms"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seed(store *memory.Store, name string) tms.Party {
	p := tms.Party{ID: uuid.New(), Name: name}
	store.SeedParty(p)
	return p
}

func token(store *memory.Store, p tms.Party, bookedAt string, amount, weight int64) {
	store.SeedToken(tms.Token{ID: uuid.New(), PartyID: p.ID, BookedAt: bookedAt, Amount: decimal.NewFromInt(amount), Weight: decimal.NewFromInt(weight), Packages: 1, Status: tms.TokenPending})
}

func pay(store *memory.Store, p tms.Party, paidOn string, amount int64) {
	store.SeedPayment(tms.Payment{ID: uuid.New(), PartyID: p.ID, PaidOn: paidOn, Amount: decimal.NewFromInt(amount), Method: ledger.MethodCash})
}

func TestPartyLedger_BuildsFromStore(t *testing.T) {
	store := memory.New()
	p := seed(store, "Sharma")
	other := seed(store, "Other")
	token(store, p, "01-01-2024 09:00 AM", 1000, 10)
	token(store, p, "15-01-2024 09:00 AM", 500, 5)
	token(store, other, "05-01-2024 09:00 AM", 7777, 1)
	pay(store, p, "10/01/2024", 300)

	svc := statement.New(store, testLogger())
	got, res, err := svc.PartyLedger(context.Background(), p.ID, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("wrong party returned")
	}
	if len(res.Rows) != 3 || !res.Closing.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("expected 3 rows closing 1200, got %d rows closing %s", len(res.Rows), res.Closing)
	}
	if res.Rows[1].Details != "Payment (CASH)" {
		t.Fatalf("unexpected details %q", res.Rows[1].Details)
	}
}

func TestPartyLedger_InvalidRange(t *testing.T) {
	store := memory.New()
	p := seed(store, "Sharma")
	svc := statement.New(store, testLogger())
	w := ledger.Window{From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, _, err := svc.PartyLedger(context.Background(), p.ID, decimal.Zero, &w); !errors.Is(err, ledger.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestOutstanding(t *testing.T) {
	store := memory.New()
	b := seed(store, "beta")
	a := seed(store, "Alpha")
	seed(store, "Idle")
	token(store, a, "01-01-2024", 5000, 1)
	token(store, a, "not-a-date", 1000, 1)
	pay(store, a, "02/01/2024", 2000)
	pay(store, b, "02/01/2024", 100)

	rows, err := statement.New(store, testLogger()).Outstanding(context.Background())
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 parties with activity, got %d", len(rows))
	}
	if rows[0].PartyName != "Alpha" || !rows[0].Billing.Equal(decimal.NewFromInt(6000)) || !rows[0].Payments.Equal(decimal.NewFromInt(2000)) || !rows[0].Outstanding.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("unexpected alpha row %+v", rows[0])
	}
	if rows[1].PartyName != "beta" || !rows[1].Outstanding.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("unexpected beta row %+v", rows[1])
	}
}

func TestDailyBookings(t *testing.T) {
	store := memory.New()
	p := seed(store, "Sharma")
	token(store, p, "01-03-2024 09:00 AM", 100, 10)
	token(store, p, "01-03-2024 06:00 PM", 50, 5)
	token(store, p, "03-03-2024 09:00 AM", 20, 2)
	token(store, p, "30-03-2024 09:00 AM", 999, 99)
	token(store, p, "garbage", 1, 1)

	w, _ := ledger.NewWindow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	rows, skipped, err := statement.New(store, testLogger()).DailyBookings(context.Background(), &w)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 days, got %d", len(rows))
	}
	if rows[0].Tokens != 2 || !rows[0].Amount.Equal(decimal.NewFromInt(150)) || !rows[0].Weight.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected first day %+v", rows[0])
	}
	if rows[1].Date.Format(ledger.DisplayLayout) != "03-03-2024" {
		t.Fatalf("unexpected second day %s", rows[1].Date)
	}
}
