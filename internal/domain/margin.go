package domain

import "github.com/shopspring/decimal"

// Capabilities lists optional adapter features.
type Capabilities struct {
	MarginBalance bool
	MarginLoans   bool
}

// AssetMargin is a per-asset margin balance.
type AssetMargin struct {
	Asset    string          `json:"asset"`
	Free     decimal.Decimal `json:"free"`
	Borrowed decimal.Decimal `json:"borrowed"`
	Total    decimal.Decimal `json:"total"`
}

// AssetLoan is an outstanding borrow of one asset.
type AssetLoan struct {
	Asset    string          `json:"asset"`
	Borrowed decimal.Decimal `json:"borrowed"`
}

// MarginSummary is the account-wide margin state of position based exchanges.
type MarginSummary struct {
	Balance   decimal.Decimal `json:"margin_balance"`
	Net       decimal.Decimal `json:"margin_net"`
	Min       decimal.Decimal `json:"margin_min"`
	UserPL    decimal.Decimal `json:"user_pl"`
	UserSwaps decimal.Decimal `json:"user_swaps"`
}

// MarginPosition is an open margin position.
type MarginPosition struct {
	Symbol           string          `json:"symbol"`
	Amount           decimal.Decimal `json:"amount"`
	BasePrice        decimal.Decimal `json:"base_price"`
	MarginFunding    decimal.Decimal `json:"margin_funding"`
	PL               decimal.Decimal `json:"pl"`
	PLPercent        decimal.Decimal `json:"pl_perc"`
	LiquidationPrice decimal.Decimal `json:"price_liq"`
	Leverage         decimal.Decimal `json:"leverage"`
}

// MarginBalance holds either per-asset balances or a summary, depending on the exchange shape.
type MarginBalance struct {
	Assets  []AssetMargin  `json:"assets,omitempty"`
	Summary *MarginSummary `json:"summary,omitempty"`
}

// Empty reports whether there is nothing to show.
func (b MarginBalance) Empty() bool {
	return len(b.Assets) == 0 && b.Summary == nil
}

// MarginLoans holds either per-asset loans or open positions.
type MarginLoans struct {
	Assets    []AssetLoan      `json:"assets,omitempty"`
	Positions []MarginPosition `json:"positions,omitempty"`
}

// Empty reports whether there is nothing to show.
func (l MarginLoans) Empty() bool {
	return len(l.Assets) == 0 && len(l.Positions) == 0
}

// OpenPositions keeps positions with a positive amount.
func OpenPositions(positions []MarginPosition) []MarginPosition {
	open := make([]MarginPosition, 0, len(positions))
	for _, p := range positions {
		if p.Amount.GreaterThan(decimal.Zero) {
			open = append(open, p)
		}
	}
	return open
}

// MarginReport is everything fetched for one account by the margin command.
type MarginReport struct {
	Account AccountID      `json:"account"`
	Shape   string         `json:"shape"`
	Balance *MarginBalance `json:"balance,omitempty"`
	Loans   *MarginLoans   `json:"loans,omitempty"`
}
