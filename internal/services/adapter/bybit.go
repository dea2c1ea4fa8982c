package adapter

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/pkg/retrier"
)

// BybitAdapter serves a bybit unified trading account.
type BybitAdapter struct {
	client  *bybit.Client
	profile domain.Profile
	retry   *retrier.Retrier
}

func NewBybitAdapter(client *bybit.Client, l *zap.Logger) *BybitAdapter {
	profile, _ := domain.ProfileOf(domain.ExchangeBybit)
	return &BybitAdapter{
		client:  client,
		profile: profile,
		retry:   retrier.New(retrier.WithLogger(l, "bybit read")),
	}
}

func (a *BybitAdapter) Exchange() domain.Exchange { return domain.ExchangeBybit }

// Capabilities: the unified account reports borrows per coin, there is no loan listing.
func (a *BybitAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{MarginBalance: true}
}

type bybitCoin struct {
	coin     string
	wallet   decimal.Decimal
	locked   decimal.Decimal
	borrowed decimal.Decimal
}

func (c bybitCoin) free() decimal.Decimal { return c.wallet.Sub(c.locked) }

func (a *BybitAdapter) coins(ctx context.Context) ([]bybitCoin, error) {
	var coins []bybitCoin
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		res, err := a.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
		if err != nil {
			return err
		}

		coins = coins[:0]
		if len(res.Result.List) == 0 {
			return nil
		}
		for _, coin := range res.Result.List[0].Coin {
			c := bybitCoin{coin: string(coin.Coin)}
			if c.wallet, err = parseAmount(coin.WalletBalance); err != nil {
				return errors.Wrapf(err, "failed to parse balance of %s", c.coin)
			}
			if c.locked, err = parseAmount(coin.Locked); err != nil {
				return errors.Wrapf(err, "failed to parse locked of %s", c.coin)
			}
			if c.borrowed, err = parseAmount(coin.BorrowAmount); err != nil {
				return errors.Wrapf(err, "failed to parse borrow amount of %s", c.coin)
			}
			coins = append(coins, c)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit wallet balance")
	}
	return coins, nil
}

func (a *BybitAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	coins, err := a.coins(ctx)
	if err != nil {
		return nil, err
	}

	out := make(domain.Balances, 0, len(coins))
	for _, c := range coins {
		if free := c.free(); free.IsPositive() {
			out = append(out, domain.Balance{Asset: c.coin, Amount: free})
		}
	}
	return out, nil
}

func (a *BybitAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	table := make(domain.PriceTable)
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		res, err := a.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: "spot",
		})
		if err != nil {
			return err
		}

		for _, t := range res.Result.Spot.List {
			price, err := decimal.NewFromString(t.LastPrice)
			if err != nil {
				continue
			}
			table[string(t.Symbol)] = price
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit tickers")
	}
	return table, nil
}

func (a *BybitAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, bybit.SideBuy, asset, amount)
}

func (a *BybitAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, bybit.SideSell, asset, amount)
}

func (a *BybitAdapter) order(ctx context.Context, side bybit.Side, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	symbol := a.profile.OrderPair(asset).Symbol()
	linkID := uuid.New().String()

	resp, err := a.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    "spot",
		Symbol:      bybit.SymbolV5(symbol),
		Side:        side,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         amount.String(),
		OrderLinkID: &linkID,
	})
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to create bybit %s order for %s", side, symbol)
	}

	return domain.OrderReceipt{
		OrderID:       resp.Result.OrderID,
		ClientOrderID: linkID,
		Symbol:        symbol,
	}, nil
}

// MarginBalance lists coins that are held or borrowed in the unified account.
func (a *BybitAdapter) MarginBalance(ctx context.Context) (domain.MarginBalance, error) {
	coins, err := a.coins(ctx)
	if err != nil {
		return domain.MarginBalance{}, err
	}

	var out domain.MarginBalance
	for _, c := range coins {
		free := c.free()
		if !free.IsPositive() && !c.borrowed.IsPositive() {
			continue
		}
		out.Assets = append(out.Assets, domain.AssetMargin{
			Asset:    c.coin,
			Free:     free,
			Borrowed: c.borrowed,
			Total:    c.wallet,
		})
	}
	return out, nil
}
