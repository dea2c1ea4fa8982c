package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var acc1 = domain.AccountID{Exchange: domain.ExchangeBinance, Account: "acc1"}

func view() domain.AccountView {
	return domain.AccountView{
		Account: acc1,
		Assets: []domain.ValuedAsset{
			{Asset: "BTC", Amount: d("0.5"), USDValue: d("30000"), Exchange: domain.ExchangeBinance, Account: "acc1"},
			{Asset: "DOGE", Amount: d("10"), USDValue: d("1.234"), Exchange: domain.ExchangeBinance, Account: "acc1"},
		},
		Total: d("30001.234"),
	}
}

func TestText_BalanceSingleAccount(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Balance(BalanceReport{
		Target:    domain.Target{Scope: domain.ScopeAccount, Exchange: domain.ExchangeBinance, Account: "acc1"},
		Exchanges: []ExchangeBalance{{Exchange: domain.ExchangeBinance, Accounts: []domain.AccountView{view()}, Total: d("30001.234")}},
	})

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "30000.00")
	assert.Contains(t, out, "1.23")
	assert.Contains(t, out, "binance_acc1")
	assert.Contains(t, out, "Total Value for Account")
	assert.Contains(t, out, "30001.23")
	assert.NotContains(t, out, "Total Value for Exchange")
	assert.Less(t, strings.Index(out, "BTC"), strings.Index(out, "DOGE"))
}

func TestText_BalanceAll(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Balance(BalanceReport{
		Target:    domain.Target{Scope: domain.ScopeAll},
		Exchanges: []ExchangeBalance{{Exchange: domain.ExchangeBinance, Accounts: []domain.AccountView{view()}, Total: d("30001.234")}},
	})

	out := buf.String()
	assert.Contains(t, out, "Balance for Exchange: binance")
	assert.Contains(t, out, "Total Value for Exchange")
}

func TestText_MarginGeneric(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.Margin(domain.MarginReport{
		Account: acc1,
		Shape:   domain.MarginShapeGeneric.String(),
		Balance: &domain.MarginBalance{Assets: []domain.AssetMargin{{Asset: "BTC", Free: d("1"), Borrowed: d("0.5"), Total: d("1")}}},
		Loans:   &domain.MarginLoans{},
	})

	out := buf.String()
	assert.Contains(t, out, "Margin Balances for acc1 on binance:")
	assert.Contains(t, out, "Borrowed")
	assert.Contains(t, out, "No active margin loans found for acc1 on binance.")
}

func TestText_MarginPositions(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	id := domain.AccountID{Exchange: domain.ExchangeBitfinex, Account: "main"}

	r.Margin(domain.MarginReport{
		Account: id,
		Shape:   domain.MarginShapePositions.String(),
		Balance: &domain.MarginBalance{Summary: &domain.MarginSummary{Balance: d("1000.5"), UserPL: d("-12.5")}},
		Loans: &domain.MarginLoans{Positions: []domain.MarginPosition{
			{Symbol: "ETHUSD", Amount: d("2"), BasePrice: d("1800.5"), PL: d("35.5"), Leverage: d("3.2")},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Margin Balance")
	assert.Contains(t, out, "1000.5")
	assert.Contains(t, out, "User Swaps")
	assert.Contains(t, out, "ETHUSD")
	assert.Contains(t, out, "2.0000")
	assert.Contains(t, out, "1800.5000")
	assert.Contains(t, out, "35.50")
	assert.Contains(t, out, "3.2000")
}

func TestText_MarginFollowsShape(t *testing.T) {
	var buf bytes.Buffer
	id := domain.AccountID{Exchange: domain.ExchangeHyperliquid, Account: "main"}

	// per-asset data does not fit the positions layout
	NewText(&buf).Margin(domain.MarginReport{
		Account: id,
		Shape:   domain.MarginShapePositions.String(),
		Balance: &domain.MarginBalance{Assets: []domain.AssetMargin{{Asset: "BTC", Free: d("1"), Total: d("1")}}},
		Loans:   &domain.MarginLoans{Assets: []domain.AssetLoan{{Asset: "BTC", Borrowed: d("0.1")}}},
	})

	out := buf.String()
	assert.Contains(t, out, "No margin balances found for main on hyperliquid.")
	assert.Contains(t, out, "ℹ️ No active margin loans found for main on hyperliquid.")
	assert.NotContains(t, out, "Borrowed")
}

func TestText_MarginPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Margin(domain.MarginReport{Account: acc1, Balance: &domain.MarginBalance{}, Loans: &domain.MarginLoans{}})

	out := buf.String()
	assert.Contains(t, out, "No margin balances found for acc1 on binance.")
	assert.Contains(t, out, "ℹ️ No active margin loans found for acc1 on binance.")
}

func TestText_MarginSkipsMissingCapabilities(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).Margin(domain.MarginReport{Account: acc1})
	assert.Empty(t, buf.String())
}

func TestText_Trade(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.Trade(TradeLine{Simulated: true, Action: domain.ActionSell, Asset: "BTC", Amount: d("0.025"), Account: acc1})
	r.Trade(TradeLine{Action: domain.ActionBuy, Asset: "ETH", Amount: d("1.5"), Account: acc1, OrderID: "42"})
	r.Trade(TradeLine{Action: domain.ActionBuy, Asset: "ADA", Amount: d("0"), Account: acc1, Skipped: "amount rounds to zero"})

	assert.Equal(t,
		"[Simulation] Sell 0.025 of BTC on binance_acc1\n"+
			"Buy 1.5 of ETH on binance_acc1 (order 42)\n"+
			"Skipped Buy 0 of ADA on binance_acc1: amount rounds to zero\n",
		buf.String())
}

func TestText_MarginError(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf).MarginError(acc1, errors.New("boom"))
	assert.Equal(t, "❌ Error handling margin for acc1 on binance: boom\n", buf.String())
}

func TestNew_SelectsRenderer(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSON{}, New(config.FormatJSON, &buf))
	assert.IsType(t, &Text{}, New(config.FormatText, &buf))
	assert.IsType(t, &Text{}, New("", &buf))
}

func TestJSON_Lines(t *testing.T) {
	var buf bytes.Buffer
	r := New(config.FormatJSON, &buf)

	r.Trade(TradeLine{Simulated: true, Action: domain.ActionSell, Asset: "BTC", Amount: d("0.025"), Account: acc1})
	r.History(nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var trade struct {
		Kind string `json:"kind"`
		Data struct {
			Simulated bool   `json:"simulated"`
			Action    string `json:"action"`
			Amount    string `json:"amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &trade))
	assert.Equal(t, "trade", trade.Kind)
	assert.True(t, trade.Data.Simulated)
	assert.Equal(t, "sell", trade.Data.Action)
	assert.Equal(t, "0.025", trade.Data.Amount)

	assert.JSONEq(t, `{"kind":"history","data":[]}`, lines[1])
}
