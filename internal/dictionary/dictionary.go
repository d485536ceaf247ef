package dictionary

import (
	"strings"

	"github.com/tinoosan/tms/internal/ledger"
	"github.com/tinoosan/tms/internal/tms"
)

type Def struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var paymentModes = []Def{
	{Code: string(ledger.MethodCash), Label: "Cash"},
	{Code: string(ledger.MethodBank), Label: "Bank Transfer"},
	{Code: string(ledger.MethodUPI), Label: "UPI"},
	{Code: string(ledger.MethodCheque), Label: "Cheque"},
	{Code: string(ledger.MethodOther), Label: "Other"},
}

var tokenStatuses = []Def{
	{Code: string(tms.TokenPending), Label: "Pending"},
	{Code: string(tms.TokenLoaded), Label: "Loaded"},
	{Code: string(tms.TokenDelivered), Label: "Delivered"},
	{Code: string(tms.TokenBilled), Label: "Billed"},
}

var rateTypes = []Def{
	{Code: string(tms.RateTypeKG), Label: "Per Kg"},
	{Code: string(tms.RateTypeParcel), Label: "Per Parcel"},
}

// PaymentModes returns the curated payment modes in display order.
func PaymentModes() []Def { return clone(paymentModes) }

// TokenStatuses returns the token lifecycle states in order.
func TokenStatuses() []Def { return clone(tokenStatuses) }

// RateTypes returns the supported freight rate types.
func RateTypes() []Def { return clone(rateTypes) }

// Label looks up the display label for code within defs, falling back to the code itself.
func Label(defs []Def, code string) string {
	for _, d := range defs {
		if strings.EqualFold(d.Code, code) {
			return d.Label
		}
	}
	return code
}

func clone(in []Def) []Def {
	out := make([]Def, len(in))
	copy(out, in)
	return out
}
