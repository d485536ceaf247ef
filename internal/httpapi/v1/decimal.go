package v1

import (
    "bytes"
    "encoding/json"
    "fmt"
    "strings"
    "unicode"

    "github.com/shopspring/decimal"
)

// currencyMarks are prefixes people type in front of amounts.
var currencyMarks = []string{"INR", "Rs.", "Rs", "₹"}

// parseAmount accepts "1,200.50", "₹ 1200", "Rs.500" and plain numbers.
func parseAmount(raw string) (decimal.Decimal, error) {
    s := strings.TrimSpace(raw)
    for _, m := range currencyMarks {
        if len(s) >= len(m) && strings.EqualFold(s[:len(m)], m) {
            s = strings.TrimSpace(s[len(m):])
            break
        }
    }
    var b strings.Builder
    for i, r := range s {
        switch {
        case unicode.IsDigit(r), r == '.':
            b.WriteRune(r)
        case r == '-' && i == 0:
            b.WriteRune(r)
        case r == ',' || r == ' ':
        default:
            return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
        }
    }
    clean := b.String()
    if clean == "" || clean == "-" { return decimal.Zero, fmt.Errorf("invalid amount %q", raw) }
    return decimal.NewFromString(clean)
}

// flexDecimal decodes from a JSON number or a lenient amount string.
type flexDecimal struct {
    decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    if len(b) == 0 || string(b) == "null" {
        f.Decimal = decimal.Zero
        return nil
    }
    if b[0] == '"' {
        var s string
        if err := json.Unmarshal(b, &s); err != nil { return err }
        if strings.TrimSpace(s) == "" { f.Decimal = decimal.Zero; return nil }
        d, err := parseAmount(s)
        if err != nil { return err }
        f.Decimal = d
        return nil
    }
    d, err := decimal.NewFromString(string(b))
    if err != nil { return fmt.Errorf("invalid amount %s", b) }
    f.Decimal = d
    return nil
}

// ptr returns nil for a missing optional amount.
func (f *flexDecimal) ptr() *decimal.Decimal {
    if f == nil { return nil }
    d := f.Decimal
    return &d
}
