package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/errs"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// assertSingleAccount fails when entries from more than one party are mixed.
func assertSingleAccount(t *testing.T, bookings []BookingEntry, payments []PaymentEntry) {
	t.Helper()
	var id uuid.UUID
	check := func(got uuid.UUID) {
		if id == uuid.Nil {
			id = got
			return
		}
		if got != id {
			t.Fatalf("mixed accounts in input: %s and %s", id, got)
		}
	}
	for _, b := range bookings {
		check(b.AccountID)
	}
	for _, p := range payments {
		check(p.AccountID)
	}
}

func assertBalances(t *testing.T, res Result, want ...int64) {
	t.Helper()
	if len(res.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(res.Rows), res.Rows)
	}
	for i, w := range want {
		if !res.Rows[i].Balance.Equal(dec(w)) {
			t.Fatalf("row %d: expected balance %d, got %s", i, w, res.Rows[i].Balance)
		}
	}
}

func TestBuild_RunningBalanceAcrossKinds(t *testing.T) {
	acct := uuid.New()
	bookings := []BookingEntry{
		{AccountID: acct, OccurredAt: "01-01-2024 09:00 AM", Reference: "1", Amount: dec(1000)},
		{AccountID: acct, OccurredAt: "15-01-2024 04:30 PM", Reference: "2", Amount: dec(500)},
	}
	payments := []PaymentEntry{
		{AccountID: acct, OccurredAt: "10/01/2024", Amount: dec(300), Method: MethodCash},
	}
	assertSingleAccount(t, bookings, payments)

	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertBalances(t, res, 1000, 700, 1200)
	if !res.Closing.Equal(dec(1200)) {
		t.Fatalf("expected closing 1200, got %s", res.Closing)
	}
	if res.Skipped != 0 {
		t.Fatalf("expected no skipped entries, got %d", res.Skipped)
	}
	wantKinds := []Kind{KindBooking, KindPayment, KindBooking}
	for i, k := range wantKinds {
		if res.Rows[i].Kind != k {
			t.Fatalf("row %d: expected kind %s, got %s", i, k, res.Rows[i].Kind)
		}
	}
	if got := res.Rows[1].DisplayDate(); got != "10-01-2024" {
		t.Fatalf("expected display date 10-01-2024, got %s", got)
	}
	if res.Rows[0].Details != "Token #1" || res.Rows[1].Details != "Payment (CASH)" {
		t.Fatalf("unexpected details: %q, %q", res.Rows[0].Details, res.Rows[1].Details)
	}
	if !res.Rows[1].Debit.IsZero() || !res.Rows[1].Credit.Equal(dec(300)) {
		t.Fatalf("payment row should carry credit only: %+v", res.Rows[1])
	}
}

func TestBuild_SameDayBookingBeforePayment(t *testing.T) {
	acct := uuid.New()
	// payment is listed first on purpose and stamped earlier in the day
	payments := []PaymentEntry{{AccountID: acct, OccurredAt: "05-03-2024", Amount: dec(200), Method: MethodUPI, Remark: "gpay"}}
	bookings := []BookingEntry{{AccountID: acct, OccurredAt: "05-03-2024 11:45 PM", Reference: "9", Amount: dec(200)}}

	res, err := Build(bookings, payments, dec(100), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertBalances(t, res, 300, 100)
	if res.Rows[0].Kind != KindBooking || res.Rows[1].Kind != KindPayment {
		t.Fatalf("expected booking then payment, got %s then %s", res.Rows[0].Kind, res.Rows[1].Kind)
	}
	if res.Rows[1].Details != "Payment (UPI) - gpay" {
		t.Fatalf("unexpected payment details %q", res.Rows[1].Details)
	}
}

func TestBuild_SameDayKeepsInputOrderPerKind(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "01-02-2024", Reference: "a", Amount: dec(10)},
		{OccurredAt: "01-02-2024", Reference: "b", Amount: dec(20)},
		{OccurredAt: "01-02-2024", Reference: "c", Amount: dec(30)},
	}
	payments := []PaymentEntry{
		{OccurredAt: "01/02/2024", Amount: dec(1), Remark: "x"},
		{OccurredAt: "01/02/2024", Amount: dec(2), Remark: "y"},
	}
	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"Token #a", "Token #b", "Token #c", "Payment (OTHER) - x", "Payment (OTHER) - y"}
	for i, d := range want {
		if res.Rows[i].Details != d {
			t.Fatalf("row %d: expected %q, got %q", i, d, res.Rows[i].Details)
		}
	}
	again, _ := Build(bookings, payments, decimal.Zero, nil)
	for i := range res.Rows {
		if res.Rows[i].Details != again.Rows[i].Details || !res.Rows[i].Balance.Equal(again.Rows[i].Balance) {
			t.Fatalf("build is not deterministic at row %d", i)
		}
	}
}

func TestBuild_ReverseChronologicalInput(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "20-12-2024", Reference: "3", Amount: dec(30)},
		{OccurredAt: "10-06-2024", Reference: "2", Amount: dec(20)},
		{OccurredAt: "01-01-2024", Reference: "1", Amount: dec(10)},
	}
	payments := []PaymentEntry{
		{OccurredAt: "2024-11-01", Amount: dec(5)},
		{OccurredAt: "2024-02-01", Amount: dec(5)},
	}
	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 1; i < len(res.Rows); i++ {
		if res.Rows[i].Date.Before(res.Rows[i-1].Date) {
			t.Fatalf("rows out of order at %d: %s before %s", i, res.Rows[i-1].DisplayDate(), res.Rows[i].DisplayDate())
		}
	}
	assertBalances(t, res, 10, 5, 25, 20, 50)
}

func TestBuild_WindowIsInclusive(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "31-12-2023", Reference: "0", Amount: dec(999)},
		{OccurredAt: "01-01-2024 12:05 AM", Reference: "1", Amount: dec(100)},
		{OccurredAt: "31-01-2024 11:59 PM", Reference: "2", Amount: dec(200)},
		{OccurredAt: "01-02-2024", Reference: "3", Amount: dec(999)},
	}
	payments := []PaymentEntry{{OccurredAt: "15/01/2024", Amount: dec(50)}}

	w, err := NewWindow(day(2024, time.January, 1), day(2024, time.January, 31))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	res, err := Build(bookings, payments, dec(1000), &w)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertBalances(t, res, 1100, 1050, 1250)
	if !res.Opening.Equal(dec(1000)) {
		t.Fatalf("opening should be echoed, got %s", res.Opening)
	}
}

func TestBuild_InvalidRange(t *testing.T) {
	w := Window{From: day(2024, time.June, 1), To: day(2024, time.January, 1)}
	bookings := []BookingEntry{{OccurredAt: "01-03-2024", Reference: "1", Amount: dec(10)}}
	res, err := Build(bookings, nil, decimal.Zero, &w)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if !errors.Is(err, errs.ErrInvalidRange) {
		t.Fatalf("expected error to wrap errs.ErrInvalidRange")
	}
	if len(res.Rows) != 0 {
		t.Fatalf("expected no partial rows, got %d", len(res.Rows))
	}
	if _, err := NewWindow(w.From, w.To); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("NewWindow should reject reversed range, got %v", err)
	}
}

func TestBuild_SingleDayWindow(t *testing.T) {
	w, err := NewWindow(day(2024, time.March, 5), day(2024, time.March, 5))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	bookings := []BookingEntry{
		{OccurredAt: "05-03-2024 08:00 AM", Reference: "1", Amount: dec(10)},
		{OccurredAt: "06-03-2024 08:00 AM", Reference: "2", Amount: dec(10)},
	}
	res, err := Build(bookings, nil, decimal.Zero, &w)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertBalances(t, res, 10)
}

func TestBuild_EmptyIsValid(t *testing.T) {
	res, err := Build(nil, nil, dec(750), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(res.Rows))
	}
	if !res.Closing.Equal(dec(750)) {
		t.Fatalf("expected closing to equal opening, got %s", res.Closing)
	}
}

func TestBuild_MalformedDatesAreSkipped(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "not a date", Reference: "1", Amount: dec(100)},
		{OccurredAt: "32-01-2024", Reference: "2", Amount: dec(100)},
		{OccurredAt: "02-01-2024", Reference: "3", Amount: dec(100)},
	}
	payments := []PaymentEntry{{OccurredAt: "", Amount: dec(40)}}
	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Skipped != 3 {
		t.Fatalf("expected 3 skipped, got %d", res.Skipped)
	}
	assertBalances(t, res, 100)
}

func TestBuild_ClosingMatchesColumnTotals(t *testing.T) {
	var bookings []BookingEntry
	var payments []PaymentEntry
	for i := 1; i <= 28; i++ {
		d := day(2024, time.February, i)
		bookings = append(bookings, BookingEntry{OccurredAt: d.Format(DisplayLayout), Reference: "b", Amount: decimal.NewFromFloat(float64(i) * 12.5)})
		if i%3 == 0 {
			payments = append(payments, PaymentEntry{OccurredAt: d.Format(PaymentLayout), Amount: decimal.NewFromFloat(float64(i) * 7.25)})
		}
	}
	opening := decimal.RequireFromString("-42.10")
	res, err := Build(bookings, payments, opening, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	prev := opening
	for i, row := range res.Rows {
		want := prev.Add(row.Debit).Sub(row.Credit)
		if !row.Balance.Equal(want) {
			t.Fatalf("row %d: expected balance %s, got %s", i, want, row.Balance)
		}
		prev = row.Balance
	}
	want := opening.Add(res.TotalDebit()).Sub(res.TotalCredit())
	if !res.Closing.Equal(want) {
		t.Fatalf("expected closing %s, got %s", want, res.Closing)
	}
}

func TestSummarize_IgnoresDates(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "01-01-2024", Reference: "1", Amount: dec(3000)},
		{OccurredAt: "garbage", Reference: "2", Amount: dec(2000)},
	}
	payments := []PaymentEntry{{OccurredAt: "05/01/2024", Amount: dec(2000)}}

	got := Summarize(bookings, payments)
	if !got.Equal(dec(3000)) {
		t.Fatalf("expected 3000, got %s", got)
	}

	// the ledger view drops the malformed booking, so the two figures differ
	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !res.Closing.Equal(dec(1000)) || res.Skipped != 1 {
		t.Fatalf("expected closing 1000 with 1 skipped, got %s / %d", res.Closing, res.Skipped)
	}
	if got.Equal(res.Closing) {
		t.Fatalf("summary and ledger closing should disagree when a date is malformed")
	}
}

func TestSummarize_IgnoresPaymentDates(t *testing.T) {
	bookings := []BookingEntry{
		{OccurredAt: "01-01-2024 10:00 AM", Reference: "1", Amount: dec(3000)},
		{OccurredAt: "02-01-2024 11:00 AM", Reference: "2", Amount: dec(2000)},
	}
	payments := []PaymentEntry{
		{OccurredAt: "05/01/2024", Amount: dec(1500), Method: MethodCash},
		{OccurredAt: "not a date", Amount: dec(500), Method: MethodUPI},
	}

	got := Summarize(bookings, payments)
	if !got.Equal(dec(3000)) {
		t.Fatalf("expected 3000, got %s", got)
	}

	res, err := Build(bookings, payments, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !res.Closing.Equal(dec(3500)) || res.Skipped != 1 || len(res.Rows) != 3 {
		t.Fatalf("expected closing 3500 over 3 rows with 1 skipped, got %s / %d rows / %d", res.Closing, len(res.Rows), res.Skipped)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil, nil); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"15-01-2024 10:30 AM", day(2024, time.January, 15), true},
		{"5-1-2024 9:05 PM", day(2024, time.January, 5), true},
		{"15/01/2024", day(2024, time.January, 15), true},
		{"03/04/2024", day(2024, time.April, 3), true},
		{"2024-01-15", day(2024, time.January, 15), true},
		{"2024-01-15T23:30:00+05:30", day(2024, time.January, 15), true},
		{"  15-01-2024  ", day(2024, time.January, 15), true},
		{"2024/15/01", time.Time{}, false},
		{"31-02-2024", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, c := range cases {
		got, err := ParseDate(c.in)
		if c.ok && err != nil {
			t.Fatalf("ParseDate(%q): unexpected error %v", c.in, err)
		}
		if !c.ok {
			if err == nil {
				t.Fatalf("ParseDate(%q): expected error, got %s", c.in, got)
			}
			continue
		}
		if !got.Equal(c.want) {
			t.Fatalf("ParseDate(%q): expected %s, got %s", c.in, c.want, got)
		}
	}
}

func TestParseMethod(t *testing.T) {
	if m, ok := ParseMethod(" Cheque "); !ok || m != MethodCheque {
		t.Fatalf("expected cheque, got %q %v", m, ok)
	}
	if _, ok := ParseMethod("crypto"); ok {
		t.Fatalf("expected unknown method to be rejected")
	}
}
