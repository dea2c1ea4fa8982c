// Package portfolio builds valued, sorted views of exchange accounts.
package portfolio

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/internal/services/adapter"
)

type adapterSource interface {
	Get(ctx context.Context, id domain.AccountID) (adapter.Adapter, error)
}

type usdResolver interface {
	USDValue(exchange domain.Exchange, asset string, amount decimal.Decimal, prices domain.PriceTable) (decimal.Decimal, error)
}

// Aggregator values the holdings of single accounts.
type Aggregator struct {
	l        *zap.Logger
	adapters adapterSource
	cache    *BalanceCache
	resolver usdResolver
	minUSD   decimal.Decimal
	out      io.Writer
}

// NewAggregator creates an Aggregator. Assets worth less than minUSD are left out of views.
// Progress lines ("Fetching balance for ...") go to out when it is not nil.
func NewAggregator(
	l *zap.Logger,
	adapters adapterSource,
	cache *BalanceCache,
	resolver usdResolver,
	minUSD decimal.Decimal,
	out io.Writer,
) *Aggregator {
	if l == nil {
		l = zap.NewNop()
	}
	if cache == nil {
		cache = NewBalanceCache()
	}
	return &Aggregator{
		l:        l,
		adapters: adapters,
		cache:    cache,
		resolver: resolver,
		minUSD:   minUSD,
		out:      out,
	}
}

// Cache returns the balance cache used by the aggregator.
func (a *Aggregator) Cache() *BalanceCache {
	return a.cache
}

// PrepareAccountView returns the assets of id sorted by USD value, largest first, and their total.
// Raw balances come from the cache when present; prices are fetched on every call.
func (a *Aggregator) PrepareAccountView(ctx context.Context, id domain.AccountID) (domain.AccountView, error) {
	ad, err := a.adapters.Get(ctx, id)
	if err != nil {
		return domain.AccountView{}, errors.Wrapf(err, "failed to open account %s", id)
	}

	balances, fetched, err := a.cache.GetOrFetch(ctx, id, func(ctx context.Context) (domain.Balances, error) {
		if a.out != nil {
			fmt.Fprintf(a.out, "Fetching balance for %s...\n", id)
		}
		return ad.GetBalance(ctx)
	})
	if err != nil {
		return domain.AccountView{}, errors.Wrapf(err, "failed to fetch balance for %s", id)
	}

	prices, err := ad.GetPrices(ctx)
	if err != nil {
		return domain.AccountView{}, errors.Wrapf(err, "failed to fetch prices for %s", id)
	}

	assets := make([]domain.ValuedAsset, 0, len(balances))
	for _, b := range balances {
		if b.Amount.IsZero() {
			continue
		}

		value, err := a.resolver.USDValue(ad.Exchange(), b.Asset, b.Amount, prices)
		if err != nil {
			return domain.AccountView{}, errors.Wrapf(err, "failed to value %s on %s", b.Asset, id)
		}
		if value.LessThan(a.minUSD) {
			continue
		}

		assets = append(assets, domain.ValuedAsset{
			Asset:    b.Asset,
			Amount:   b.Amount,
			USDValue: value,
			Exchange: id.Exchange,
			Account:  id.Account,
		})
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].USDValue.GreaterThan(assets[j].USDValue)
	})

	total := decimal.Zero
	for _, asset := range assets {
		total = total.Add(asset.USDValue)
	}

	a.l.Debug("account view prepared",
		zap.String("account", id.String()),
		zap.Bool("balance_fetched", fetched),
		zap.Int("assets", len(assets)),
		zap.String("total_usd", total.String()))

	return domain.AccountView{Account: id, Assets: assets, Total: total}, nil
}
