// Package adapter connects exchange clients to the portfolio core.
//
// Every exchange account is served by one Adapter. Margin data is an optional capability:
// an adapter declares it through Capabilities and implements the matching reader interface.
package adapter

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/domain"
)

// ErrUnsupportedExchange is returned for exchanges that have a valuation profile but no adapter.
var ErrUnsupportedExchange = errors.New("exchange has no adapter")

// Adapter is the contract every exchange account implements.
type Adapter interface {
	// Exchange identifies the exchange so valuation can pick its quoting conventions.
	Exchange() domain.Exchange
	Capabilities() domain.Capabilities
	// GetBalance returns free balances with zero amounts removed.
	GetBalance(ctx context.Context) (domain.Balances, error)
	GetPrices(ctx context.Context) (domain.PriceTable, error)
	Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error)
	Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error)
}

// MarginBalanceReader is implemented by adapters that can report margin balances.
type MarginBalanceReader interface {
	MarginBalance(ctx context.Context) (domain.MarginBalance, error)
}

// MarginLoanReader is implemented by adapters that can report active margin loans.
type MarginLoanReader interface {
	MarginLoans(ctx context.Context) (domain.MarginLoans, error)
}

// MarginBalanceOf returns the margin balance reader of a, if a declares that capability.
func MarginBalanceOf(a Adapter) (MarginBalanceReader, bool) {
	if !a.Capabilities().MarginBalance {
		return nil, false
	}
	r, ok := a.(MarginBalanceReader)
	return r, ok
}

// MarginLoansOf returns the margin loan reader of a, if a declares that capability.
func MarginLoansOf(a Adapter) (MarginLoanReader, bool) {
	if !a.Capabilities().MarginLoans {
		return nil, false
	}
	r, ok := a.(MarginLoanReader)
	return r, ok
}

// ExecuteAction places a market order for action.
func ExecuteAction(ctx context.Context, a Adapter, action domain.Action, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	switch action {
	case domain.ActionBuy:
		return a.Buy(ctx, asset, amount)
	case domain.ActionSell:
		return a.Sell(ctx, asset, amount)
	default:
		return domain.OrderReceipt{}, errors.Errorf("unknown action: %s", action)
	}
}

// parseAmount converts an exchange amount string, treating an empty string as zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
