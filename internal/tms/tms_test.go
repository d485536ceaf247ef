package tms

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/ledger"
)

func TestMinorUnitsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1234.56")
	units, err := MinorUnits("INR", d)
	if err != nil {
		t.Fatalf("minor units: %v", err)
	}
	if units != 123456 {
		t.Fatalf("expected 123456, got %d", units)
	}
	back, err := FromMinorUnits("INR", units)
	if err != nil {
		t.Fatalf("from minor: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("expected %s, got %s", d, back)
	}
	if _, err := MinorUnits("???", d); err == nil {
		t.Fatalf("expected unknown currency to fail")
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		curr, in, want string
	}{
		{"INR", "0.004", "0"},
		{"INR", "0.005", "0.01"},
		{"INR", "30.8625", "30.86"},
		{"INR", "-2.345", "-2.35"},
		{"JPY", "120.5", "121"},
		{"???", "1.239", "1.24"},
	}
	for _, c := range cases {
		got := Round(c.curr, decimal.RequireFromString(c.in))
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("%s %s: expected %s, got %s", c.curr, c.in, c.want, got)
		}
		if c.curr == "???" {
			continue
		}
		// rounding first must not change what storage keeps
		a, _ := MinorUnits(c.curr, decimal.RequireFromString(c.in))
		b, _ := MinorUnits(c.curr, got)
		if a != b {
			t.Fatalf("%s %s: minor units differ after rounding: %d vs %d", c.curr, c.in, a, b)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format("INR", decimal.NewFromInt(1200)); got != "1200.00" {
		t.Fatalf("expected 1200.00, got %s", got)
	}
}

func TestFreight(t *testing.T) {
	rate := decimal.RequireFromString("2.5")
	if got := Freight(RateTypeKG, decimal.NewFromInt(120), 3, rate); !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("kg freight: expected 300, got %s", got)
	}
	if got := Freight(RateTypeParcel, decimal.NewFromInt(120), 3, rate); !got.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("parcel freight: expected 7.5, got %s", got)
	}
}

func TestTokenAndPaymentEntries(t *testing.T) {
	party := uuid.New()
	tok := Token{PartyID: party, TokenNo: 42, BookedAt: "01-01-2024 10:00 AM", Amount: decimal.NewFromInt(500)}
	b := tok.Booking()
	if b.AccountID != party || b.Reference != "42" || !b.Amount.Equal(tok.Amount) {
		t.Fatalf("unexpected booking entry %+v", b)
	}
	p := Payment{PartyID: party, PaidOn: "02/01/2024", Amount: decimal.NewFromInt(100), Method: ledger.MethodBank, Remark: "neft"}
	e := p.Entry()
	if e.AccountID != party || e.Method != ledger.MethodBank || e.OccurredAt != "02/01/2024" {
		t.Fatalf("unexpected payment entry %+v", e)
	}
}

func TestTokenFilter(t *testing.T) {
	party := uuid.New()
	tok := Token{PartyID: party, Status: TokenLoaded}
	if !(TokenFilter{}).Match(tok) {
		t.Fatalf("empty filter should match")
	}
	if (TokenFilter{Status: TokenPending}).Match(tok) {
		t.Fatalf("status filter should not match")
	}
	other := uuid.New()
	if (TokenFilter{PartyID: &other}).Match(tok) {
		t.Fatalf("party filter should not match")
	}
	if st, ok := ParseTokenStatus("loaded"); !ok || st != TokenLoaded {
		t.Fatalf("expected LOADED, got %q", st)
	}
	if rt, ok := ParseRateType("parcel"); !ok || rt != RateTypeParcel {
		t.Fatalf("expected PARCEL, got %q", rt)
	}
}
