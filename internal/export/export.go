// Package export renders party ledgers and bills as xlsx workbooks.
package export

import (
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/tms"
)

// ContentType is the media type served for workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	LedgerSheet = "Ledger"
	BillSheet   = "Bill"
)

var (
	ledgerHeadings = []any{"date", "type", "details", "debit", "credit", "balance"}
	billHeadings   = []any{"token_no", "datetime", "from_city", "to_city", "weight", "packages", "amount"}
)

// LedgerWorkbook builds a workbook with a header block (party, window,
// opening, closing), a blank row, then one row per ledger row.
func LedgerWorkbook(p tms.Party, res ledger.Result, w *ledger.Window) (*excelize.File, error) {
	f, err := newBook(LedgerSheet)
	if err != nil { return nil, err }
	from, to := "", ""
	if w != nil { from, to = w.From.Format(ledger.DisplayLayout), w.To.Format(ledger.DisplayLayout) }
	header := [][]any{
		{"Party", p.Name},
		{"From", from},
		{"To", to},
		{"Opening", num(res.Opening)},
		{"Closing", num(res.Closing)},
	}
	row, err := setRows(f, LedgerSheet, 1, header)
	if err != nil { return nil, discard(f, err) }
	row++
	if err := setRow(f, LedgerSheet, row, ledgerHeadings...); err != nil { return nil, discard(f, err) }
	row++
	for _, r := range res.Rows {
		if err := setRow(f, LedgerSheet, row, r.DisplayDate(), string(r.Kind), r.Details, num(r.Debit), num(r.Credit), num(r.Balance)); err != nil {
			return nil, discard(f, err)
		}
		row++
	}
	return f, nil
}

// BillWorkbook builds a workbook with the bill header, the token lines, and
// the total, old balance and grand total rows.
func BillWorkbook(p tms.Party, b tms.Bill, tokens []tms.Token) (*excelize.File, error) {
	f, err := newBook(BillSheet)
	if err != nil { return nil, err }
	header := [][]any{
		{"Party", p.Name},
		{"Bill No", strconv.FormatInt(b.BillNo, 10)},
		{"From", b.From.Format(ledger.DisplayLayout)},
		{"To", b.To.Format(ledger.DisplayLayout)},
	}
	row, err := setRows(f, BillSheet, 1, header)
	if err != nil { return nil, discard(f, err) }
	row++
	if err := setRow(f, BillSheet, row, billHeadings...); err != nil { return nil, discard(f, err) }
	row++
	lines := make([][]any, 0, len(tokens)+3)
	for _, t := range tokens {
		lines = append(lines, []any{t.TokenNo, t.BookedAt, t.FromCity, t.ToCity, num(t.Weight), t.Packages, num(t.Amount)})
	}
	lines = append(lines,
		[]any{"", "", "", "TOTAL", num(b.TotalWeight), b.TotalPackages, num(b.Subtotal)},
		[]any{"", "", "", "OLD BALANCE", "", "", num(b.OldBalance)},
		[]any{"", "", "", "GRAND TOTAL", "", "", num(b.Total)},
	)
	if _, err := setRows(f, BillSheet, row, lines); err != nil { return nil, discard(f, err) }
	return f, nil
}

// Write streams f to w and closes it.
func Write(w io.Writer, f *excelize.File) error {
	defer f.Close()
	return f.Write(w)
}

func newBook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, discard(f, err)
	}
	return f, nil
}

// discard closes a half-built workbook and returns err.
func discard(f *excelize.File, err error) error {
	_ = f.Close()
	return err
}

// setRows writes rows starting at row and returns the next free row.
func setRows(f *excelize.File, sheet string, row int, rows [][]any) (int, error) {
	for _, vals := range rows {
		if err := setRow(f, sheet, row, vals...); err != nil { return row, err }
		row++
	}
	return row, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil { return err }
		if err := f.SetCellValue(sheet, cell, v); err != nil { return err }
	}
	return nil
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }
