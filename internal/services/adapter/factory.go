package adapter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/internal/storage/simstate"
)

// CredentialSource resolves the API credentials of an account.
type CredentialSource interface {
	Credentials(id domain.AccountID) (config.Credentials, error)
}

// Factory builds adapters on first use and keeps one per account.
type Factory struct {
	mu       sync.Mutex
	l        *zap.Logger
	creds    CredentialSource
	sandbox  bool
	wallets  map[string]domain.Balances
	simDir   string
	adapters map[domain.AccountID]Adapter
	prices   PriceSource
}

// FactoryOption tunes a Factory.
type FactoryOption func(*Factory)

// WithSimulateStateDir keeps paper wallet state under dir.
func WithSimulateStateDir(dir string) FactoryOption {
	return func(f *Factory) {
		f.simDir = dir
	}
}

// WithPriceSource replaces the public binance prices used by paper wallets.
func WithPriceSource(p PriceSource) FactoryOption {
	return func(f *Factory) {
		f.prices = p
	}
}

func NewFactory(l *zap.Logger, creds CredentialSource, conf config.Config, opts ...FactoryOption) *Factory {
	if l == nil {
		l = zap.NewNop()
	}
	f := &Factory{
		l:        l,
		creds:    creds,
		sandbox:  conf.Sandbox,
		wallets:  conf.PaperWallets,
		adapters: make(map[domain.AccountID]Adapter),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the adapter of id, creating it on first call.
func (f *Factory) Get(_ context.Context, id domain.AccountID) (Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.adapters[id]; ok {
		return a, nil
	}

	a, err := f.build(id)
	if err != nil {
		return nil, errors.Wrapf(err, "create adapter for %s", id)
	}
	f.adapters[id] = a
	return a, nil
}

// build is the single place that dispatches to exchange specific adapters.
func (f *Factory) build(id domain.AccountID) (Adapter, error) {
	l := f.l.With(zap.String("account", id.String()))

	switch id.Exchange {
	case domain.ExchangeSimulate:
		return f.buildSimulate(id, l)
	case domain.ExchangeCoinbase, domain.ExchangeKucoin:
		return nil, errors.Wrapf(ErrUnsupportedExchange, "%s", id.Exchange)
	}

	creds, err := f.creds.Credentials(id)
	if err != nil {
		return nil, err
	}

	switch id.Exchange {
	case domain.ExchangeBinance:
		return NewBinanceAdapter(clients.NewBinanceClient(creds.APIKey, creds.APISecret, f.sandbox), l), nil
	case domain.ExchangeBybit:
		return NewBybitAdapter(clients.NewBybitClient(creds.APIKey, creds.APISecret, f.sandbox), l), nil
	case domain.ExchangeHyperliquid:
		client, err := clients.NewHyperliquidClient(creds.PrivateKey, creds.AccountAddress, f.sandbox)
		if err != nil {
			return nil, errors.Wrap(err, "init hyperliquid client")
		}
		return NewHyperliquidAdapter(client, l), nil
	case domain.ExchangeKraken:
		client, err := clients.NewKrakenClient(creds.APIKey, creds.APISecret, f.sandbox, l)
		if err != nil {
			return nil, err
		}
		return NewKrakenAdapter(client), nil
	case domain.ExchangeBitfinex:
		client, err := clients.NewBitfinexClient(creds.APIKey, creds.APISecret, f.sandbox, l)
		if err != nil {
			return nil, err
		}
		return NewBitfinexAdapter(client), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedExchange, "%s", id.Exchange)
	}
}

func (f *Factory) buildSimulate(id domain.AccountID, l *zap.Logger) (Adapter, error) {
	var (
		store *simstate.Store
		err   error
	)
	if f.simDir != "" {
		store, err = simstate.NewStoreIn(f.simDir, id.Account)
	} else {
		store, err = simstate.NewStore(id.Account)
	}
	if err != nil {
		return nil, err
	}

	if f.prices == nil {
		f.prices = NewBinancePriceSource(clients.NewPublicBinanceClient(), f.l)
	}
	return NewSimulateAdapter(f.wallets[id.Account], f.prices, store, l)
}
