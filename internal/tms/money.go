package tms

import (
	"fmt"

	"github.com/govalues/money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "INR"

// Round rounds d half away from zero to the scale of curr, e.g. paise for
// INR. Services round every amount with it before writing so both stores keep
// the same value. An unknown currency falls back to two places.
func Round(curr string, d decimal.Decimal) decimal.Decimal {
	c, err := money.ParseCurr(curr)
	if err != nil {
		return d.Round(2)
	}
	return d.Round(int32(c.Scale()))
}

// MinorUnits converts d into integer minor units of curr, rounding to the
// currency's scale. Storage and API *_minor fields use this value.
func MinorUnits(curr string, d decimal.Decimal) (int64, error) {
	c, err := money.ParseCurr(curr)
	if err != nil {
		return 0, err
	}
	a, err := money.ParseAmount(c.Code(), d.Round(int32(c.Scale())).StringFixed(int32(c.Scale())))
	if err != nil {
		return 0, err
	}
	units, ok := a.MinorUnits()
	if !ok {
		return 0, fmt.Errorf("amount %s overflows minor units", d)
	}
	return units, nil
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(curr string, units int64) (decimal.Decimal, error) {
	a, err := money.NewAmountFromMinorUnits(curr, units)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(a.Decimal().String())
}

// Format renders d at the currency scale, e.g. "1200.50".
func Format(curr string, d decimal.Decimal) string {
	if c, err := money.ParseCurr(curr); err == nil {
		return d.StringFixed(int32(c.Scale()))
	}
	return d.StringFixed(2)
}
