package adapter

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/pkg/retrier"
)

// BinanceAdapter serves a binance spot account with cross margin data.
type BinanceAdapter struct {
	client  *binance.Client
	profile domain.Profile
	retry   *retrier.Retrier
}

func NewBinanceAdapter(client *binance.Client, l *zap.Logger) *BinanceAdapter {
	profile, _ := domain.ProfileOf(domain.ExchangeBinance)
	return &BinanceAdapter{
		client:  client,
		profile: profile,
		retry:   retrier.New(retrier.WithLogger(l, "binance read")),
	}
}

func (a *BinanceAdapter) Exchange() domain.Exchange { return domain.ExchangeBinance }

func (a *BinanceAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{MarginBalance: true, MarginLoans: true}
}

func (a *BinanceAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	account, err := retrier.DoWithData(a.retry, ctx, func(ctx context.Context) (*binance.Account, error) {
		return a.client.NewGetAccountService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance account balance")
	}

	out := make(domain.Balances, 0, len(account.Balances))
	for _, balance := range account.Balances {
		free, err := parseAmount(balance.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse balance of %s", balance.Asset)
		}
		if free.IsZero() {
			continue
		}
		out = append(out, domain.Balance{Asset: balance.Asset, Amount: free})
	}
	return out, nil
}

func (a *BinanceAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	return listBinancePrices(ctx, a.client, a.retry)
}

func listBinancePrices(ctx context.Context, client *binance.Client, retry *retrier.Retrier) (domain.PriceTable, error) {
	prices, err := retrier.DoWithData(retry, ctx, func(ctx context.Context) ([]*binance.SymbolPrice, error) {
		return client.NewListPricesService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list binance prices")
	}

	table := make(domain.PriceTable, len(prices))
	for _, p := range prices {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			continue
		}
		table[p.Symbol] = price
	}
	return table, nil
}

func (a *BinanceAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, binance.SideTypeBuy, asset, amount)
}

func (a *BinanceAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, binance.SideTypeSell, asset, amount)
}

func (a *BinanceAdapter) order(ctx context.Context, side binance.SideType, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	symbol := a.profile.OrderPair(asset).Symbol()
	clientOrderID := uuid.New().String()

	resp, err := a.client.NewCreateOrderService().Symbol(symbol).
		Side(side).Type(binance.OrderTypeMarket).
		Quantity(amount.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to place binance %s order for %s", side, symbol)
	}

	return domain.OrderReceipt{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
	}, nil
}

func (a *BinanceAdapter) marginAssets(ctx context.Context) ([]binance.UserAsset, error) {
	account, err := retrier.DoWithData(a.retry, ctx, func(ctx context.Context) (*binance.MarginAccount, error) {
		return a.client.NewGetMarginAccountService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance margin account")
	}
	return account.UserAssets, nil
}

// MarginBalance lists cross margin assets that are free or borrowed.
func (a *BinanceAdapter) MarginBalance(ctx context.Context) (domain.MarginBalance, error) {
	assets, err := a.marginAssets(ctx)
	if err != nil {
		return domain.MarginBalance{}, err
	}

	var out domain.MarginBalance
	for _, asset := range assets {
		free, err := parseAmount(asset.Free)
		if err != nil {
			return domain.MarginBalance{}, errors.Wrapf(err, "failed to parse margin free of %s", asset.Asset)
		}
		borrowed, err := parseAmount(asset.Borrowed)
		if err != nil {
			return domain.MarginBalance{}, errors.Wrapf(err, "failed to parse margin borrowed of %s", asset.Asset)
		}
		locked, err := parseAmount(asset.Locked)
		if err != nil {
			return domain.MarginBalance{}, errors.Wrapf(err, "failed to parse margin locked of %s", asset.Asset)
		}
		if !free.IsPositive() && !borrowed.IsPositive() {
			continue
		}

		out.Assets = append(out.Assets, domain.AssetMargin{
			Asset:    asset.Asset,
			Free:     free,
			Borrowed: borrowed,
			Total:    free.Add(locked),
		})
	}
	return out, nil
}

// MarginLoans lists assets with an outstanding borrow.
func (a *BinanceAdapter) MarginLoans(ctx context.Context) (domain.MarginLoans, error) {
	assets, err := a.marginAssets(ctx)
	if err != nil {
		return domain.MarginLoans{}, err
	}

	var out domain.MarginLoans
	for _, asset := range assets {
		borrowed, err := parseAmount(asset.Borrowed)
		if err != nil {
			return domain.MarginLoans{}, errors.Wrapf(err, "failed to parse margin borrowed of %s", asset.Asset)
		}
		if borrowed.IsPositive() {
			out.Assets = append(out.Assets, domain.AssetLoan{Asset: asset.Asset, Borrowed: borrowed})
		}
	}
	return out, nil
}
