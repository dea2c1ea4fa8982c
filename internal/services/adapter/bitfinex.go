package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
)

type bitfinexAPI interface {
	Wallets(ctx context.Context) ([]clients.BitfinexWallet, error)
	MarginBase(ctx context.Context) (clients.BitfinexMarginBase, error)
	Positions(ctx context.Context) ([]clients.BitfinexPosition, error)
	SubmitMarketOrder(ctx context.Context, symbol, amount string, cid int64) (string, error)
	LastPrices(ctx context.Context) (map[string]string, error)
}

// BitfinexAdapter serves a bitfinex account with position based margin.
type BitfinexAdapter struct {
	client  bitfinexAPI
	profile domain.Profile
}

func NewBitfinexAdapter(client bitfinexAPI) *BitfinexAdapter {
	profile, _ := domain.ProfileOf(domain.ExchangeBitfinex)
	return &BitfinexAdapter{client: client, profile: profile}
}

func (a *BitfinexAdapter) Exchange() domain.Exchange { return domain.ExchangeBitfinex }

func (a *BitfinexAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{MarginBalance: true, MarginLoans: true}
}

// GetBalance sums every wallet (exchange, margin, funding) per currency.
func (a *BitfinexAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	wallets, err := a.client.Wallets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bitfinex wallets")
	}

	index := make(map[string]int, len(wallets))
	var out domain.Balances
	for _, w := range wallets {
		amount, err := number(w.Balance)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s wallet of %s", w.Type, w.Currency)
		}
		if !amount.IsPositive() {
			continue
		}
		if i, ok := index[w.Currency]; ok {
			out[i].Amount = out[i].Amount.Add(amount)
			continue
		}
		index[w.Currency] = len(out)
		out = append(out, domain.Balance{Asset: w.Currency, Amount: amount})
	}
	return out, nil
}

func (a *BitfinexAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	raw, err := a.client.LastPrices(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bitfinex tickers")
	}
	return parsePriceTable(raw), nil
}

func (a *BitfinexAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, asset, amount)
}

// Sell submits a negative amount, which is how bitfinex expresses the sell side.
func (a *BitfinexAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, asset, amount.Neg())
}

func (a *BitfinexAdapter) order(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	pair := a.profile.OrderPair(asset)
	symbol := a.profile.Quote.Prefix + pair.Symbol()
	cid := time.Now().UnixMilli()

	id, err := a.client.SubmitMarketOrder(ctx, symbol, amount.String(), cid)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to submit bitfinex order for %s", symbol)
	}
	return domain.OrderReceipt{OrderID: id, ClientOrderID: strconv.FormatInt(cid, 10), Symbol: symbol}, nil
}

func (a *BitfinexAdapter) MarginBalance(ctx context.Context) (domain.MarginBalance, error) {
	base, err := a.client.MarginBase(ctx)
	if err != nil {
		return domain.MarginBalance{}, errors.Wrap(err, "failed to get bitfinex margin info")
	}

	var summary domain.MarginSummary
	for _, f := range []struct {
		dst *decimal.Decimal
		src json.Number
	}{
		{&summary.Balance, base.MarginBalance},
		{&summary.Net, base.MarginNet},
		{&summary.Min, base.MarginMin},
		{&summary.UserPL, base.UserPL},
		{&summary.UserSwaps, base.UserSwaps},
	} {
		if *f.dst, err = number(f.src); err != nil {
			return domain.MarginBalance{}, errors.Wrap(err, "failed to parse bitfinex margin info")
		}
	}
	return domain.MarginBalance{Summary: &summary}, nil
}

// MarginLoans lists long positions; shorts are not loans of the quote currency here.
func (a *BitfinexAdapter) MarginLoans(ctx context.Context) (domain.MarginLoans, error) {
	positions, err := a.client.Positions(ctx)
	if err != nil {
		return domain.MarginLoans{}, errors.Wrap(err, "failed to get bitfinex positions")
	}

	all := make([]domain.MarginPosition, 0, len(positions))
	for _, p := range positions {
		pos := domain.MarginPosition{Symbol: strings.TrimPrefix(p.Symbol, a.profile.Quote.Prefix)}
		for _, f := range []struct {
			dst *decimal.Decimal
			src json.Number
		}{
			{&pos.Amount, p.Amount},
			{&pos.BasePrice, p.BasePrice},
			{&pos.MarginFunding, p.MarginFunding},
			{&pos.PL, p.PL},
			{&pos.PLPercent, p.PLPercent},
			{&pos.LiquidationPrice, p.LiquidationPrice},
			{&pos.Leverage, p.Leverage},
		} {
			if *f.dst, err = number(f.src); err != nil {
				return domain.MarginLoans{}, errors.Wrapf(err, "failed to parse bitfinex position %s", p.Symbol)
			}
		}
		all = append(all, pos)
	}
	return domain.MarginLoans{Positions: domain.OpenPositions(all)}, nil
}

// number parses a json number, treating null as zero.
func number(n json.Number) (decimal.Decimal, error) {
	return parseAmount(n.String())
}
