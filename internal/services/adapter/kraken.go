package adapter

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
)

type krakenAPI interface {
	Balance(ctx context.Context) ([]clients.KrakenBalance, error)
	LastPrices(ctx context.Context) (map[string]string, error)
	AddMarketOrder(ctx context.Context, pair, side, volume, clientOrderID string) ([]string, error)
}

// KrakenAdapter serves a kraken spot account. Kraken has no margin data here.
type KrakenAdapter struct {
	client  krakenAPI
	profile domain.Profile
}

func NewKrakenAdapter(client krakenAPI) *KrakenAdapter {
	profile, _ := domain.ProfileOf(domain.ExchangeKraken)
	return &KrakenAdapter{client: client, profile: profile}
}

func (a *KrakenAdapter) Exchange() domain.Exchange { return domain.ExchangeKraken }

func (a *KrakenAdapter) Capabilities() domain.Capabilities { return domain.Capabilities{} }

func (a *KrakenAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	raw, err := a.client.Balance(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get kraken balance")
	}

	out := make(domain.Balances, 0, len(raw))
	for _, b := range raw {
		amount, err := parseAmount(b.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse balance of %s", b.Asset)
		}
		if !amount.IsPositive() {
			continue
		}
		out = append(out, domain.Balance{Asset: b.Asset, Amount: amount})
	}
	return out, nil
}

func (a *KrakenAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	raw, err := a.client.LastPrices(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get kraken prices")
	}
	return parsePriceTable(raw), nil
}

func (a *KrakenAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, "buy", asset, amount)
}

func (a *KrakenAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, "sell", asset, amount)
}

func (a *KrakenAdapter) order(ctx context.Context, side, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	pair := a.profile.OrderPair(asset).Symbol()
	clientOrderID := uuid.New().String()

	txid, err := a.client.AddMarketOrder(ctx, pair, side, amount.String(), clientOrderID)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to place kraken %s order for %s", side, pair)
	}
	return domain.OrderReceipt{
		OrderID:       strings.Join(txid, ","),
		ClientOrderID: clientOrderID,
		Symbol:        pair,
	}, nil
}

// parsePriceTable drops prices the exchange sent in an unparsable form.
func parsePriceTable(raw map[string]string) domain.PriceTable {
	table := make(domain.PriceTable, len(raw))
	for symbol, p := range raw {
		price, err := decimal.NewFromString(p)
		if err != nil {
			continue
		}
		table[symbol] = price
	}
	return table
}
