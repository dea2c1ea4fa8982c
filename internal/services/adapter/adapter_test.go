package adapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeKraken struct {
	balances []clients.KrakenBalance
	prices   map[string]string
	orders   []string
}

func (f *fakeKraken) Balance(context.Context) ([]clients.KrakenBalance, error) {
	return f.balances, nil
}

func (f *fakeKraken) LastPrices(context.Context) (map[string]string, error) {
	return f.prices, nil
}

func (f *fakeKraken) AddMarketOrder(_ context.Context, pair, side, volume, _ string) ([]string, error) {
	f.orders = append(f.orders, side+" "+volume+" "+pair)
	return []string{"OTX-1"}, nil
}

func TestKrakenAdapter(t *testing.T) {
	api := &fakeKraken{
		balances: []clients.KrakenBalance{
			{Asset: "XXBT", Amount: "0.5"},
			{Asset: "XXDG", Amount: "0.0000000000"},
			{Asset: "ZUSD", Amount: "12.3"},
		},
		prices: map[string]string{"XBTUSDT": "60000", "BAD": "n/a"},
	}
	a := NewKrakenAdapter(api)
	ctx := context.Background()

	balances, err := a.GetBalance(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "XXBT", balances[0].Asset)
	assert.Equal(t, "ZUSD", balances[1].Asset)

	prices, err := a.GetPrices(ctx)
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.True(t, prices["XBTUSDT"].Equal(d("60000")))

	receipt, err := a.Sell(ctx, "XXBT", d("0.125"))
	require.NoError(t, err)
	assert.Equal(t, "XBTUSD", receipt.Symbol)
	assert.Equal(t, "OTX-1", receipt.OrderID)
	assert.NotEmpty(t, receipt.ClientOrderID)
	assert.Equal(t, []string{"sell 0.125 XBTUSD"}, api.orders)

	_, ok := MarginBalanceOf(a)
	assert.False(t, ok)
	_, ok = MarginLoansOf(a)
	assert.False(t, ok)
}

type fakeBitfinex struct {
	wallets   []clients.BitfinexWallet
	base      clients.BitfinexMarginBase
	positions []clients.BitfinexPosition
	submitted []string
}

func (f *fakeBitfinex) Wallets(context.Context) ([]clients.BitfinexWallet, error) {
	return f.wallets, nil
}

func (f *fakeBitfinex) MarginBase(context.Context) (clients.BitfinexMarginBase, error) {
	return f.base, nil
}

func (f *fakeBitfinex) Positions(context.Context) ([]clients.BitfinexPosition, error) {
	return f.positions, nil
}

func (f *fakeBitfinex) SubmitMarketOrder(_ context.Context, symbol, amount string, _ int64) (string, error) {
	f.submitted = append(f.submitted, symbol+" "+amount)
	return "77", nil
}

func (f *fakeBitfinex) LastPrices(context.Context) (map[string]string, error) {
	return map[string]string{"tBTCUSD": "60000"}, nil
}

func TestBitfinexAdapter(t *testing.T) {
	api := &fakeBitfinex{
		wallets: []clients.BitfinexWallet{
			{Type: "exchange", Currency: "BTC", Balance: "0.5"},
			{Type: "margin", Currency: "UST", Balance: "100"},
			{Type: "margin", Currency: "BTC", Balance: "0.25"},
			{Type: "funding", Currency: "USD", Balance: "0"},
		},
		base: clients.BitfinexMarginBase{MarginBalance: "1000.5", MarginNet: "988", MarginMin: "50", UserPL: "-12.5"},
		positions: []clients.BitfinexPosition{
			{Symbol: "tETHUSD", Amount: "2", BasePrice: "1800.5", PL: "35.5", PLPercent: "0.98", LiquidationPrice: "900.1", Leverage: "3.2"},
			{Symbol: "tBTCUSD", Amount: "-0.1", BasePrice: "60000"},
		},
	}
	a := NewBitfinexAdapter(api)
	ctx := context.Background()

	t.Run("wallets are summed per currency in first seen order", func(t *testing.T) {
		balances, err := a.GetBalance(ctx)
		require.NoError(t, err)
		require.Len(t, balances, 2)
		assert.Equal(t, "BTC", balances[0].Asset)
		assert.True(t, balances[0].Amount.Equal(d("0.75")))
		assert.Equal(t, "UST", balances[1].Asset)
	})

	t.Run("sell submits a negative amount", func(t *testing.T) {
		receipt, err := a.Sell(ctx, "btc", d("0.1"))
		require.NoError(t, err)
		assert.Equal(t, "tBTCUSD", receipt.Symbol)
		assert.Equal(t, "77", receipt.OrderID)

		_, err = a.Buy(ctx, "ETH", d("2"))
		require.NoError(t, err)
		assert.Equal(t, []string{"tBTCUSD -0.1", "tETHUSD 2"}, api.submitted)
	})

	t.Run("margin summary", func(t *testing.T) {
		r, ok := MarginBalanceOf(a)
		require.True(t, ok)
		mb, err := r.MarginBalance(ctx)
		require.NoError(t, err)
		require.NotNil(t, mb.Summary)
		assert.True(t, mb.Summary.Balance.Equal(d("1000.5")))
		assert.True(t, mb.Summary.UserSwaps.IsZero())
		assert.True(t, mb.Summary.UserPL.Equal(d("-12.5")))
	})

	t.Run("only long positions are loans", func(t *testing.T) {
		r, ok := MarginLoansOf(a)
		require.True(t, ok)
		loans, err := r.MarginLoans(ctx)
		require.NoError(t, err)
		require.Len(t, loans.Positions, 1)
		p := loans.Positions[0]
		assert.Equal(t, "ETHUSD", p.Symbol)
		assert.True(t, p.Leverage.Equal(d("3.2")))
		assert.True(t, p.MarginFunding.IsZero())
	})

	t.Run("bad numbers are errors", func(t *testing.T) {
		bad := NewBitfinexAdapter(&fakeBitfinex{wallets: []clients.BitfinexWallet{{Currency: "BTC", Balance: json.Number("x")}}})
		_, err := bad.GetBalance(ctx)
		assert.Error(t, err)
	})
}

type flaggedBitfinex struct {
	*BitfinexAdapter
	caps domain.Capabilities
}

func (f flaggedBitfinex) Capabilities() domain.Capabilities { return f.caps }

func TestMarginCapabilityRequiresFlag(t *testing.T) {
	a := flaggedBitfinex{BitfinexAdapter: NewBitfinexAdapter(&fakeBitfinex{}), caps: domain.Capabilities{MarginBalance: true}}

	_, ok := MarginBalanceOf(a)
	assert.True(t, ok)

	// implements the reader, but does not declare it
	_, ok = MarginLoansOf(a)
	assert.False(t, ok)
}

func TestExecuteAction(t *testing.T) {
	api := &fakeKraken{}
	a := NewKrakenAdapter(api)

	_, err := ExecuteAction(context.Background(), a, domain.ActionBuy, "XETH", d("1"))
	require.NoError(t, err)
	_, err = ExecuteAction(context.Background(), a, domain.Action(9), "XETH", d("1"))
	require.Error(t, err)
	assert.Equal(t, []string{"buy 1 ETHUSD"}, api.orders)
}
