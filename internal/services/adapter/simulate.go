package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/internal/storage/simstate"
	"github.com/vadiminshakov/purse/pkg/retrier"
)

// PriceSource lists market prices keyed by pair symbol.
type PriceSource interface {
	GetPrices(ctx context.Context) (domain.PriceTable, error)
}

// BinancePriceSource reads public binance prices without API keys.
type BinancePriceSource struct {
	client *binance.Client
	retry  *retrier.Retrier
}

func NewBinancePriceSource(client *binance.Client, l *zap.Logger) *BinancePriceSource {
	return &BinancePriceSource{client: client, retry: retrier.New(retrier.WithLogger(l, "binance public prices"))}
}

func (s *BinancePriceSource) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	return listBinancePrices(ctx, s.client, s.retry)
}

// SimulateAdapter is a paper wallet. Orders fill at the last market price against the USDT balance.
type SimulateAdapter struct {
	mu      sync.Mutex
	logger  *zap.Logger
	wallet  domain.Balances
	prices  PriceSource
	store   *simstate.Store
	profile domain.Profile
}

// NewSimulateAdapter restores the wallet from store, falling back to initial.
func NewSimulateAdapter(initial domain.Balances, prices PriceSource, store *simstate.Store, logger *zap.Logger) (*SimulateAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prices == nil {
		return nil, errors.New("price source is required for SimulateAdapter")
	}
	profile, _ := domain.ProfileOf(domain.ExchangeSimulate)

	a := &SimulateAdapter{
		logger:  logger,
		wallet:  initial.Clone(),
		prices:  prices,
		store:   store,
		profile: profile,
	}
	if err := a.restoreState(); err != nil {
		logger.Warn("failed to restore simulate state", zap.Error(err))
	}
	return a, nil
}

func (a *SimulateAdapter) restoreState() error {
	state, err := a.store.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	wallet, err := state.Balances()
	if err != nil {
		return err
	}
	a.wallet = wallet
	return nil
}

func (a *SimulateAdapter) Exchange() domain.Exchange { return domain.ExchangeSimulate }

func (a *SimulateAdapter) Capabilities() domain.Capabilities { return domain.Capabilities{} }

func (a *SimulateAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(domain.Balances, 0, len(a.wallet))
	for _, b := range a.wallet {
		if b.Amount.IsPositive() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (a *SimulateAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	return a.prices.GetPrices(ctx)
}

func (a *SimulateAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.fill(ctx, domain.ActionBuy, asset, amount)
}

func (a *SimulateAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.fill(ctx, domain.ActionSell, asset, amount)
}

func (a *SimulateAdapter) fill(ctx context.Context, action domain.Action, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	if !amount.IsPositive() {
		return domain.OrderReceipt{}, fmt.Errorf("%s amount must be positive, got %s", action, amount.String())
	}

	pair := a.profile.OrderPair(asset)
	symbol := pair.Symbol()

	prices, err := a.prices.GetPrices(ctx)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to get price for simulated %s", action)
	}
	price, ok := prices[symbol]
	if !ok || !price.IsPositive() {
		return domain.OrderReceipt{}, errors.Errorf("no market price for %s", symbol)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	quoteAmount := amount.Mul(price)
	switch action {
	case domain.ActionBuy:
		if have := a.amountOf(pair.To); have.LessThan(quoteAmount) {
			return domain.OrderReceipt{}, errors.Errorf("insufficient %s balance: have %s need %s", pair.To, have, quoteAmount)
		}
		a.add(pair.To, quoteAmount.Neg())
		a.add(pair.From, amount)
	case domain.ActionSell:
		if have := a.amountOf(pair.From); have.LessThan(amount) {
			return domain.OrderReceipt{}, errors.Errorf("insufficient %s balance: have %s need %s", pair.From, have, amount)
		}
		a.add(pair.From, amount.Neg())
		a.add(pair.To, quoteAmount)
	}
	a.persist()

	id := uuid.New().String()
	a.logger.Info("simulated order filled",
		zap.String("id", id),
		zap.String("side", action.String()),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()))

	return domain.OrderReceipt{OrderID: id, ClientOrderID: id, Symbol: symbol}, nil
}

func (a *SimulateAdapter) amountOf(asset string) decimal.Decimal {
	for _, b := range a.wallet {
		if b.Asset == asset {
			return b.Amount
		}
	}
	return decimal.Zero
}

func (a *SimulateAdapter) add(asset string, delta decimal.Decimal) {
	for i := range a.wallet {
		if a.wallet[i].Asset == asset {
			a.wallet[i].Amount = a.wallet[i].Amount.Add(delta)
			return
		}
	}
	a.wallet = append(a.wallet, domain.Balance{Asset: asset, Amount: delta})
}

func (a *SimulateAdapter) persist() {
	if err := a.store.Save(simstate.NewState(a.wallet, time.Now())); err != nil {
		a.logger.Warn("failed to persist simulate state", zap.Error(err))
	}
}
