// Package sizer derives market order quantities from a held amount and a percentage.
package sizer

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)
)

// majorAssets are Bitcoin and Ether spellings across exchanges, always sized to 3 places.
var majorAssets = map[string]struct{}{
	"BTC":  {},
	"ETH":  {},
	"XBT":  {},
	"XXBT": {},
	"XETH": {},
}

// Precision returns the number of decimal places a trade of asset is rounded to.
//
//	held >= 10      -> 0
//	1 <= held < 10  -> 1
//	held < 1        -> 2
//	major asset     -> 3, replacing the magnitude rule
//	percent < 10    -> one more place on top of the above
func Precision(asset string, held, percent decimal.Decimal) int32 {
	var places int32
	switch {
	case held.LessThan(one):
		places = 2
	case held.LessThan(ten):
		places = 1
	}

	if _, ok := majorAssets[asset]; ok {
		places = 3
	}

	if percent.LessThan(ten) {
		places++
	}

	return places
}

// Size returns held * percent / 100 rounded half to even at Precision places.
func Size(asset string, held, percent decimal.Decimal) decimal.Decimal {
	amount := held.Mul(percent).Div(hundred)
	return amount.RoundBank(Precision(asset, held, percent))
}
