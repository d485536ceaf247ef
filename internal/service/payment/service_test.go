package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/errs"
	"github.com/tinoosan/tms/internal/events"
	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/service/payment"
	"github.com/tinoosan/tms/internal/storage/memory"
	"github.com/tinoosan/tms/internal/tms"
)

func setup(t *testing.T) (payment.Service, *events.Recorder, tms.Party) {
	t.Helper()
	store := memory.New()
	p := tms.Party{ID: uuid.New(), Name: "Gupta & Sons"}
	store.SeedParty(p)
	rec := &events.Recorder{}
	return payment.New(store, store, rec, nil, "INR"), rec, p
}

func TestRecord_NormalizesInput(t *testing.T) {
	svc, rec, p := setup(t)
	got, replayed, err := svc.Record(context.Background(), payment.Input{
		PartyID: p.ID, PaidOn: "5/1/2024", Amount: decimal.NewFromInt(2500), Method: "UPI", Remark: "  phonepe ",
	}, "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if replayed {
		t.Fatalf("first record should not be a replay")
	}
	if got.PaidOn != "05/01/2024" || got.Method != ledger.MethodUPI || got.Remark != "phonepe" {
		t.Fatalf("unexpected payment %+v", got)
	}
	if names := rec.Names(); len(names) != 1 || names[0] != events.PaymentRecorded {
		t.Fatalf("expected payment.recorded, got %v", names)
	}
}

func TestRecord_Validation(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()
	cases := []payment.Input{
		{PartyID: p.ID, Amount: decimal.Zero},
		{PartyID: p.ID, Amount: decimal.NewFromInt(10), Method: "barter"},
		{PartyID: p.ID, Amount: decimal.NewFromInt(10), PaidOn: "yesterday"},
		{Amount: decimal.NewFromInt(10)},
	}
	for i, in := range cases {
		if _, _, err := svc.Record(ctx, in, ""); !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
	if _, _, err := svc.Record(ctx, payment.Input{PartyID: uuid.New(), Amount: decimal.NewFromInt(1)}, ""); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown party, got %v", err)
	}
}

func TestRecord_RoundsToCurrencyScale(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	// below half a paisa rounds to zero and is rejected rather than stored as 0
	if _, _, err := svc.Record(ctx, payment.Input{PartyID: p.ID, Amount: decimal.RequireFromString("0.004")}, ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for 0.004, got %v", err)
	}
	if _, err := svc.Validate(payment.Input{PartyID: p.ID, Amount: decimal.RequireFromString("0.004")}); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected Validate to reject 0.004, got %v", err)
	}

	got, _, err := svc.Record(ctx, payment.Input{PartyID: p.ID, Amount: decimal.RequireFromString("12.3456")}, "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.35")) {
		t.Fatalf("expected 12.35, got %s", got.Amount)
	}
	list, err := svc.Recent(ctx, &p.ID, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one stored payment, got %d (%v)", len(list), err)
	}
	// what memory keeps must survive the minor-unit round trip postgres does
	units, err := tms.MinorUnits("INR", list[0].Amount)
	if err != nil {
		t.Fatalf("minor units: %v", err)
	}
	back, _ := tms.FromMinorUnits("INR", units)
	if !back.Equal(list[0].Amount) {
		t.Fatalf("stored %s comes back as %s through minor units", list[0].Amount, back)
	}

	half, _, err := svc.Record(ctx, payment.Input{PartyID: p.ID, Amount: decimal.RequireFromString("0.005")}, "")
	if err != nil || !half.Amount.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected 0.005 to round up to 0.01, got %s (%v)", half.Amount, err)
	}
}

func TestRecord_IdempotencyKeyReplays(t *testing.T) {
	svc, rec, p := setup(t)
	ctx := context.Background()
	in := payment.Input{PartyID: p.ID, Amount: decimal.NewFromInt(100), Method: "cash"}
	first, _, err := svc.Record(ctx, in, "key-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	second, replayed, err := svc.Record(ctx, in, "key-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replayed || second.ID != first.ID {
		t.Fatalf("expected replay of %s, got %s (replayed=%v)", first.ID, second.ID, replayed)
	}
	if len(rec.Events()) != 1 {
		t.Fatalf("replay should not publish again, got %d events", len(rec.Events()))
	}
	list, _ := svc.Recent(ctx, &p.ID, 0)
	if len(list) != 1 {
		t.Fatalf("expected 1 stored payment, got %d", len(list))
	}
}

func TestRecent_NewestFirstWithLimit(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if _, _, err := svc.Record(ctx, payment.Input{PartyID: p.ID, Amount: decimal.NewFromInt(int64(i))}, ""); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	list, err := svc.Recent(ctx, nil, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(list) != 3 || !list[0].Amount.Equal(decimal.NewFromInt(5)) || !list[2].Amount.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected recent list %+v", list)
	}
}
