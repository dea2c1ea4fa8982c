// Package domain defines core data structures shared by the aggregator, the sizer and the exchange adapters.
package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownExchange is returned when an exchange name has no profile.
var ErrUnknownExchange = errors.New("unknown exchange")

// Exchange identifies a supported exchange.
type Exchange string

const (
	ExchangeBinance     Exchange = "binance"
	ExchangeBybit       Exchange = "bybit"
	ExchangeHyperliquid Exchange = "hyperliquid"
	ExchangeKraken      Exchange = "kraken"
	ExchangeBitfinex    Exchange = "bitfinex"
	ExchangeCoinbase    Exchange = "coinbase"
	ExchangeKucoin      Exchange = "kucoin"
	// ExchangeSimulate is a paper wallet priced from Binance public tickers.
	ExchangeSimulate Exchange = "simulate"
)

// Exchanges lists every exchange with a profile.
var Exchanges = []Exchange{
	ExchangeBinance,
	ExchangeBybit,
	ExchangeHyperliquid,
	ExchangeKraken,
	ExchangeBitfinex,
	ExchangeCoinbase,
	ExchangeKucoin,
	ExchangeSimulate,
}

// ParseExchange converts a case-insensitive name into an Exchange.
func ParseExchange(name string) (Exchange, error) {
	e := Exchange(strings.ToLower(strings.TrimSpace(name)))
	if !e.IsValid() {
		return "", errors.Wrapf(ErrUnknownExchange, "%q", name)
	}
	return e, nil
}

// String returns the string representation.
func (e Exchange) String() string {
	return string(e)
}

// IsValid checks if the exchange has a profile.
func (e Exchange) IsValid() bool {
	_, ok := profiles[e]
	return ok
}

// SymbolStyle describes how a trading pair symbol is composed from base and quote.
type SymbolStyle int

const (
	// SymbolConcat joins base and quote: BTCUSDT.
	SymbolConcat SymbolStyle = iota
	// SymbolHyphen separates base and quote with a hyphen: BTC-USD.
	SymbolHyphen
	// SymbolPrefixed puts a market marker before the base: tBTCUSD.
	SymbolPrefixed
	// SymbolBare uses the base alone, prices are already in the quote: BTC.
	SymbolBare
)

// QuoteConvention is the per-exchange rule for pricing symbols.
type QuoteConvention struct {
	Style SymbolStyle
	// Quote is the primary quote currency used for valuation lookups.
	Quote string
	// Fallback is tried once when a lookup with Quote misses. Empty disables the retry.
	Fallback string
	// Prefix is the market marker for SymbolPrefixed.
	Prefix string
}

// Symbol composes the lookup symbol of asset against quote.
func (c QuoteConvention) Symbol(asset, quote string) string {
	switch c.Style {
	case SymbolHyphen:
		return asset + "-" + quote
	case SymbolPrefixed:
		return c.Prefix + asset + quote
	case SymbolBare:
		return asset
	default:
		return asset + quote
	}
}

// MarginShape selects how margin data of an exchange is shaped and rendered.
type MarginShape int

const (
	// MarginShapeGeneric is per-asset free/borrowed/total balances and per-asset loans.
	MarginShapeGeneric MarginShape = iota
	// MarginShapePositions is a scalar margin summary plus a list of open positions.
	MarginShapePositions
)

// String returns the string representation.
func (m MarginShape) String() string {
	if m == MarginShapePositions {
		return "positions"
	}
	return "generic"
}

// Profile holds every exchange-specific quirk the core needs.
type Profile struct {
	Exchange Exchange
	// Aliases maps exchange-native asset codes to the spelling used in its pricing symbols.
	// Assets without an entry map to themselves.
	Aliases map[string]string
	// Stables are USD-pegged assets valued 1:1, matched exactly after normalization.
	Stables     []string
	Quote       QuoteConvention
	MarginShape MarginShape
	// OrderPair builds the market symbol used for buy and sell orders.
	OrderPair func(asset string) Pair
}

var defaultStables = []string{"USDT", "USDC", "USD"}

// krakenAliases reconciles Kraken's legacy X/Z prefixed codes with its pair names.
var krakenAliases = map[string]string{
	"XXBT": "XBT",
	"XETH": "ETH",
	"XLTC": "LTC",
	"XXDG": "XDG",
	"XXMR": "XMR",
	"XXRP": "XRP",
	"ZUSD": "USDT",
	"XREP": "XREPZ",
	"XXLM": "XXLMZ",
	"XZEC": "XZECZ",
}

var profiles = map[Exchange]Profile{
	ExchangeBinance: {
		Exchange:  ExchangeBinance,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolConcat, Quote: "USDT"},
		OrderPair: quotedIn("USDC"),
	},
	ExchangeBybit: {
		Exchange:  ExchangeBybit,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolConcat, Quote: "USDT"},
		OrderPair: quotedIn("USDT"),
	},
	ExchangeHyperliquid: {
		Exchange:    ExchangeHyperliquid,
		Stables:     defaultStables,
		Quote:       QuoteConvention{Style: SymbolBare, Quote: "USDC"},
		MarginShape: MarginShapePositions,
		OrderPair:   quotedIn("USDC"),
	},
	ExchangeKraken: {
		Exchange:  ExchangeKraken,
		Aliases:   krakenAliases,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolConcat, Quote: "USDT", Fallback: "USD"},
		OrderPair: func(asset string) Pair { return Pair{From: normalize(krakenAliases, asset), To: "USD"} },
	},
	ExchangeBitfinex: {
		Exchange:    ExchangeBitfinex,
		Stables:     append([]string{"UST"}, defaultStables...),
		Quote:       QuoteConvention{Style: SymbolPrefixed, Quote: "USD", Prefix: "t"},
		MarginShape: MarginShapePositions,
		OrderPair:   func(asset string) Pair { return Pair{From: strings.ToUpper(asset), To: "USD"} },
	},
	ExchangeCoinbase: {
		Exchange:  ExchangeCoinbase,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolHyphen, Quote: "USD"},
		OrderPair: quotedIn("USD"),
	},
	ExchangeKucoin: {
		Exchange:  ExchangeKucoin,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolHyphen, Quote: "USDT"},
		OrderPair: quotedIn("USDT"),
	},
	ExchangeSimulate: {
		Exchange:  ExchangeSimulate,
		Stables:   defaultStables,
		Quote:     QuoteConvention{Style: SymbolConcat, Quote: "USDT"},
		OrderPair: quotedIn("USDT"),
	},
}

func quotedIn(quote string) func(string) Pair {
	return func(asset string) Pair { return Pair{From: asset, To: quote} }
}

func normalize(aliases map[string]string, asset string) string {
	if alias, ok := aliases[asset]; ok {
		return alias
	}
	return asset
}

// ProfileOf returns the profile for e.
func ProfileOf(e Exchange) (Profile, error) {
	p, ok := profiles[e]
	if !ok {
		return Profile{}, errors.Wrapf(ErrUnknownExchange, "%q", string(e))
	}
	return p, nil
}

// Normalize maps an exchange-native asset code to its pricing spelling.
func (p Profile) Normalize(asset string) string {
	return normalize(p.Aliases, asset)
}

// IsStable reports whether the normalized asset is a USD-pegged stable asset.
func (p Profile) IsStable(normalized string) bool {
	for _, s := range p.Stables {
		if s == normalized {
			return true
		}
	}
	return false
}
