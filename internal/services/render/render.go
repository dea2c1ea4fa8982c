// Package render prints command results as terminal tables or json lines.
package render

import (
	"io"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/domain"
)

// ExchangeBalance groups the account views of one exchange.
type ExchangeBalance struct {
	Exchange domain.Exchange      `json:"exchange"`
	Accounts []domain.AccountView `json:"accounts"`
	Total    decimal.Decimal      `json:"total_usd"`
}

// BalanceReport is the result of one balance command.
type BalanceReport struct {
	Target    domain.Target     `json:"-"`
	Exchanges []ExchangeBalance `json:"exchanges"`
}

// TradeLine is one sized order, either placed or only simulated.
type TradeLine struct {
	Simulated bool             `json:"simulated"`
	Action    domain.Action    `json:"action"`
	Asset     string           `json:"asset"`
	Amount    decimal.Decimal  `json:"amount"`
	Account   domain.AccountID `json:"account"`
	OrderID   string           `json:"order_id,omitempty"`
	// Skipped is set when no order was sent, with the reason.
	Skipped string `json:"skipped,omitempty"`
}

// Renderer prints command output.
type Renderer interface {
	Timestamp(ts string)
	Balance(report BalanceReport)
	Margin(report domain.MarginReport)
	MarginError(id domain.AccountID, err error)
	Trade(line TradeLine)
	History(entries []domain.TradeRecordEntry)
	Message(msg string)
}

// New returns the renderer for format, text unless format is config.FormatJSON.
func New(format string, out io.Writer) Renderer {
	if format == config.FormatJSON {
		return NewJSON(out)
	}
	return NewText(out)
}
