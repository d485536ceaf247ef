package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/tms"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = out.Close() })
	return out
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("cell %s: %v", axis, err)
	}
	return v
}

func TestLedgerWorkbook(t *testing.T) {
	id := uuid.New()
	w, _ := ledger.NewWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	res, err := ledger.Build(
		[]ledger.BookingEntry{{AccountID: id, OccurredAt: "01-01-2024 10:00 AM", Reference: "1", Amount: decimal.NewFromInt(1000)}},
		[]ledger.PaymentEntry{{AccountID: id, OccurredAt: "05/01/2024", Amount: decimal.NewFromInt(300), Method: ledger.MethodCash}},
		decimal.NewFromInt(100), &w)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f, err := LedgerWorkbook(tms.Party{ID: id, Name: "Sharma Traders"}, res, &w)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	got := reopen(t, f)
	if v := cell(t, got, LedgerSheet, "B1"); v != "Sharma Traders" {
		t.Fatalf("expected party name, got %q", v)
	}
	if v := cell(t, got, LedgerSheet, "B2"); v != "01-01-2024" {
		t.Fatalf("expected from date, got %q", v)
	}
	if v := cell(t, got, LedgerSheet, "B5"); v != "800" {
		t.Fatalf("expected closing 800, got %q", v)
	}
	if cell(t, got, LedgerSheet, "A7") != "date" || cell(t, got, LedgerSheet, "F7") != "balance" {
		t.Fatalf("unexpected headings")
	}
	if v := cell(t, got, LedgerSheet, "B8"); v != "TOKEN" {
		t.Fatalf("expected TOKEN row first, got %q", v)
	}
	if v := cell(t, got, LedgerSheet, "C9"); v != "Payment (CASH)" {
		t.Fatalf("unexpected details %q", v)
	}
	if v := cell(t, got, LedgerSheet, "F9"); v != "800" {
		t.Fatalf("expected running balance 800, got %q", v)
	}
}

func TestBillWorkbook(t *testing.T) {
	tokens := []tms.Token{
		{TokenNo: 7, BookedAt: "01-01-2024 10:00 AM", FromCity: "DELHI", ToCity: "JAIPUR", Weight: decimal.NewFromInt(10), Packages: 2, Amount: decimal.NewFromInt(30)},
		{TokenNo: 9, BookedAt: "02-01-2024 10:00 AM", FromCity: "DELHI", ToCity: "AGRA", Weight: decimal.NewFromInt(5), Packages: 1, Amount: decimal.NewFromInt(15)},
	}
	b := tms.Bill{
		BillNo: 3, From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalWeight: decimal.NewFromInt(15), TotalPackages: 3, Subtotal: decimal.NewFromInt(45), OldBalance: decimal.NewFromInt(5), Total: decimal.NewFromInt(50),
	}
	f, err := BillWorkbook(tms.Party{Name: "Gupta"}, b, tokens)
	if err != nil {
		t.Fatalf("bill: %v", err)
	}
	got := reopen(t, f)
	if v := cell(t, got, BillSheet, "B2"); v != "3" {
		t.Fatalf("expected bill no 3, got %q", v)
	}
	if v := cell(t, got, BillSheet, "A6"); v != "token_no" {
		t.Fatalf("expected headings on row 6, got %q", v)
	}
	if v := cell(t, got, BillSheet, "A8"); v != "9" {
		t.Fatalf("expected token 9 on row 8, got %q", v)
	}
	if v := cell(t, got, BillSheet, "G9"); v != "45" {
		t.Fatalf("expected subtotal 45, got %q", v)
	}
	if v := cell(t, got, BillSheet, "G11"); v != "50" {
		t.Fatalf("expected grand total 50, got %q", v)
	}
}

func TestSetRowsError_ClosesWorkbook(t *testing.T) {
	f, err := newBook(LedgerSheet)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	// row 0 has no cell name
	_, rowErr := setRows(f, LedgerSheet, 0, [][]any{{"x"}})
	if rowErr == nil {
		t.Fatalf("expected an error writing row 0")
	}
	if got := discard(f, rowErr); !errors.Is(got, rowErr) {
		t.Fatalf("expected the write error back, got %v", got)
	}
	// a discarded workbook has already released its resources
	if err := f.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
