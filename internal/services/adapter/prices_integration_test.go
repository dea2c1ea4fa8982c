//go:build integration

package adapter

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/internal/services/valuation"
)

// Public endpoints only, no keys needed.
// To run these tests, use: go test -tags=integration -v ./...
func TestBinancePublicPrices_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	prices, err := NewBinancePriceSource(clients.NewPublicBinanceClient(), zap.NewNop()).GetPrices(context.Background())
	require.NoError(t, err)

	btc, ok := prices["BTCUSDT"]
	require.True(t, ok, "BTCUSDT missing from binance tickers")
	assert.True(t, btc.IsPositive())

	value, err := valuation.NewResolver(zap.NewNop(), nil).USDValue(domain.ExchangeBinance, "BTC", decimal.NewFromInt(1), prices)
	require.NoError(t, err)
	assert.True(t, value.Equal(btc))
	t.Logf("1 BTC = %s USD", value)
}

func TestKrakenPublicPrices_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := clients.NewKrakenClient("", "", false, zap.NewNop())
	require.NoError(t, err)

	raw, err := client.LastPrices(context.Background())
	require.NoError(t, err)
	prices := parsePriceTable(raw)

	value, err := valuation.NewResolver(zap.NewNop(), nil).USDValue(domain.ExchangeKraken, "XXBT", decimal.NewFromInt(1), prices)
	require.NoError(t, err)
	assert.True(t, value.IsPositive(), "XXBT should be priced through XBTUSDT or XBTUSD")
	t.Logf("1 XXBT = %s USD", value)
}

func TestBitfinexPublicPrices_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := clients.NewBitfinexClient("", "", false, zap.NewNop())
	require.NoError(t, err)

	raw, err := client.LastPrices(context.Background())
	require.NoError(t, err)
	prices := parsePriceTable(raw)

	value, err := valuation.NewResolver(zap.NewNop(), nil).USDValue(domain.ExchangeBitfinex, "BTC", decimal.NewFromInt(1), prices)
	require.NoError(t, err)
	assert.True(t, value.IsPositive(), "BTC should be priced through tBTCUSD")
}
