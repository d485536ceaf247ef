package postgres

import (
	"github.com/tinoosan/tms/internal/service/booking"
	"github.com/tinoosan/tms/internal/service/party"
	"github.com/tinoosan/tms/internal/service/payment"
	"github.com/tinoosan/tms/internal/service/statement"
)

var (
	_ party.Repo     = (*Store)(nil)
	_ party.Writer   = (*Store)(nil)
	_ booking.Repo   = (*Store)(nil)
	_ booking.Writer = (*Store)(nil)
	_ payment.Repo   = (*Store)(nil)
	_ payment.Writer = (*Store)(nil)
	_ statement.Repo = (*Store)(nil)
)
