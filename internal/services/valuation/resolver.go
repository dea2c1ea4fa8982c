// Package valuation turns raw exchange balances into USD values.
package valuation

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/domain"
)

// Resolver values assets using a price table and the quoting conventions of their exchange.
type Resolver struct {
	l        *zap.Logger
	warnings io.Writer
}

// NewResolver creates a resolver. Price misses are logged to l and, when warnings is not nil,
// printed there as well.
func NewResolver(l *zap.Logger, warnings io.Writer) *Resolver {
	if l == nil {
		l = zap.NewNop()
	}
	return &Resolver{l: l, warnings: warnings}
}

// USDValue returns the USD value of amount of asset held on exchange.
// A missing price is not an error: the asset is valued at zero and a warning is emitted.
// The only error is an exchange without a profile.
func (r *Resolver) USDValue(exchange domain.Exchange, asset string, amount decimal.Decimal, prices domain.PriceTable) (decimal.Decimal, error) {
	profile, err := domain.ProfileOf(exchange)
	if err != nil {
		return decimal.Zero, err
	}

	return r.value(profile, asset, amount, prices), nil
}

func (r *Resolver) value(profile domain.Profile, asset string, amount decimal.Decimal, prices domain.PriceTable) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}

	normalized := profile.Normalize(asset)
	if profile.IsStable(normalized) {
		return amount
	}

	conv := profile.Quote
	symbol := conv.Symbol(normalized, conv.Quote)
	if price, ok := prices[symbol]; ok {
		return amount.Mul(price)
	}

	// single retry, the fallback quote is never chained further
	if conv.Fallback != "" {
		fallback := conv.Symbol(normalized, conv.Fallback)
		if price, ok := prices[fallback]; ok {
			return amount.Mul(price)
		}
		symbol = fallback
	}

	r.l.Warn("price not found, asset valued at zero",
		zap.String("exchange", profile.Exchange.String()),
		zap.String("asset", asset),
		zap.String("symbol", symbol))
	if r.warnings != nil {
		fmt.Fprintf(r.warnings, "Warning: Price for %s (symbol %s) not found.\n", normalized, symbol)
	}

	return decimal.Zero
}
