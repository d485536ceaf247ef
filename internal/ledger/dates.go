package ledger

import (
	"errors"
	"strings"
	"time"
)

const (
	// DisplayLayout is the day-first date shown on ledger rows and exports.
	DisplayLayout = "02-01-2006"
	// TokenLayout is the timestamp format stamped on bookings.
	TokenLayout = "02-01-2006 03:04 PM"
	// PaymentLayout is the date format payments are entered with.
	PaymentLayout = "02/01/2006"
)

// Day-first layouts tried in order. Single-digit day/month fields also match
// zero-padded input, so the short forms cover most hand-entered values.
var layouts = []string{
	TokenLayout,
	"2-1-2006 3:04 PM",
	"2/1/2006 3:04 PM",
	"2-1-2006 15:04",
	"2/1/2006 15:04",
	"2-1-2006",
	"2/1/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var errUnparseable = errors.New("unparseable timestamp")

// ParseDate parses a raw timestamp into its calendar date (UTC midnight).
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errUnparseable
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, errUnparseable
}

// DateOf drops the clock part of t, keeping the date as written in t's own zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
