package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExchange(t *testing.T) {
	e, err := ParseExchange(" Binance ")
	require.NoError(t, err)
	assert.Equal(t, ExchangeBinance, e)

	_, err = ParseExchange("mtgox")
	assert.ErrorIs(t, err, ErrUnknownExchange)
}

func TestEveryExchangeHasProfile(t *testing.T) {
	for _, e := range Exchanges {
		p, err := ProfileOf(e)
		require.NoError(t, err, e)
		assert.Equal(t, e, p.Exchange)
		assert.NotEmpty(t, p.Quote.Quote, e)
		assert.NotNil(t, p.OrderPair, e)
	}

	_, err := ProfileOf(Exchange("nope"))
	assert.ErrorIs(t, err, ErrUnknownExchange)
}

func TestQuoteConvention_Symbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", QuoteConvention{Style: SymbolConcat}.Symbol("BTC", "USDT"))
	assert.Equal(t, "BTC-USD", QuoteConvention{Style: SymbolHyphen}.Symbol("BTC", "USD"))
	assert.Equal(t, "tBTCUSD", QuoteConvention{Style: SymbolPrefixed, Prefix: "t"}.Symbol("BTC", "USD"))
	assert.Equal(t, "BTC", QuoteConvention{Style: SymbolBare}.Symbol("BTC", "USDC"))
}

func TestKrakenProfile(t *testing.T) {
	p, err := ProfileOf(ExchangeKraken)
	require.NoError(t, err)

	assert.Equal(t, "XBT", p.Normalize("XXBT"))
	assert.Equal(t, "USDT", p.Normalize("ZUSD"))
	assert.Equal(t, "DOT", p.Normalize("DOT"))
	assert.True(t, p.IsStable(p.Normalize("ZUSD")))
	assert.Equal(t, "USD", p.Quote.Fallback)
	assert.Equal(t, "XBTUSD", p.OrderPair("XXBT").Symbol())
}

func TestStablesAreExact(t *testing.T) {
	p, err := ProfileOf(ExchangeBitfinex)
	require.NoError(t, err)

	assert.True(t, p.IsStable("UST"))
	assert.True(t, p.IsStable("USD"))
	assert.False(t, p.IsStable("usd"))
	assert.False(t, p.IsStable("USDX"))
	assert.Equal(t, MarginShapePositions, p.MarginShape)
}

func TestOpenPositions(t *testing.T) {
	positions := []MarginPosition{
		{Symbol: "tBTCUSD", Amount: decimal.NewFromInt(1)},
		{Symbol: "tETHUSD", Amount: decimal.Zero},
		{Symbol: "tLTCUSD", Amount: decimal.NewFromInt(-2)},
	}

	open := OpenPositions(positions)
	require.Len(t, open, 1)
	assert.Equal(t, "tBTCUSD", open[0].Symbol)
}

func TestMarginEmpty(t *testing.T) {
	assert.True(t, MarginBalance{}.Empty())
	assert.False(t, MarginBalance{Summary: &MarginSummary{}}.Empty())
	assert.True(t, MarginLoans{}.Empty())
	assert.False(t, MarginLoans{Assets: []AssetLoan{{Asset: "BTC"}}}.Empty())
}
