package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/internal/clients"
	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/pkg/retrier"
)

// hyperliquidSlippage emulates market orders with an IOC limit order 0.5% through the mid.
const hyperliquidSlippage = 0.005

// HyperliquidAdapter serves spot balances and perp margin of a hyperliquid wallet.
type HyperliquidAdapter struct {
	ex          *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
	profile     domain.Profile
	retry       *retrier.Retrier
}

func NewHyperliquidAdapter(client *clients.HyperliquidClient, l *zap.Logger) *HyperliquidAdapter {
	profile, _ := domain.ProfileOf(domain.ExchangeHyperliquid)
	return &HyperliquidAdapter{
		ex:          client.Exchange(),
		info:        client.Info(),
		accountAddr: client.AccountAddress(),
		profile:     profile,
		retry:       retrier.New(retrier.WithLogger(l, "hyperliquid read")),
	}
}

func (a *HyperliquidAdapter) Exchange() domain.Exchange { return domain.ExchangeHyperliquid }

func (a *HyperliquidAdapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{MarginBalance: true, MarginLoans: true}
}

// GetBalance returns free spot balances, held amounts excluded.
func (a *HyperliquidAdapter) GetBalance(ctx context.Context) (domain.Balances, error) {
	st, err := a.info.SpotUserState(ctx, a.accountAddr)
	if err != nil {
		return nil, errors.Wrap(err, "get spot user state")
	}
	return freeSpotBalances(st.Balances)
}

func freeSpotBalances(balances []hyperliquid.SpotBalance) (domain.Balances, error) {
	out := make(domain.Balances, 0, len(balances))
	for _, b := range balances {
		total, err := parseAmount(b.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse balance of %s", b.Coin)
		}
		hold, err := parseAmount(b.Hold)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse held amount of %s", b.Coin)
		}
		free := total.Sub(hold)
		if !free.IsPositive() {
			continue
		}
		out = append(out, domain.Balance{Asset: b.Coin, Amount: free})
	}
	return out, nil
}

// GetPrices returns mid prices keyed by coin.
func (a *HyperliquidAdapter) GetPrices(ctx context.Context) (domain.PriceTable, error) {
	mids, err := retrier.DoWithData(a.retry, ctx, func(ctx context.Context) (map[string]string, error) {
		return a.info.AllMids(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "get hyperliquid mids")
	}

	table := make(domain.PriceTable, len(mids))
	for coin, mid := range mids {
		price, err := decimal.NewFromString(mid)
		if err != nil {
			continue
		}
		table[coin] = price
	}
	return table, nil
}

func (a *HyperliquidAdapter) Buy(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, true, asset, amount)
}

func (a *HyperliquidAdapter) Sell(ctx context.Context, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	return a.order(ctx, false, asset, amount)
}

func (a *HyperliquidAdapter) order(ctx context.Context, isBuy bool, asset string, amount decimal.Decimal) (domain.OrderReceipt, error) {
	pair := a.profile.OrderPair(asset)
	// spot markets are addressed as BASE/QUOTE
	coin := pair.From + "/" + pair.To

	size, _ := amount.Float64()
	px, err := a.ex.SlippagePrice(ctx, coin, isBuy, hyperliquidSlippage, nil)
	if err != nil {
		return domain.OrderReceipt{}, errors.Wrap(err, "slippage price")
	}

	cloid := cloidFromID(uuid.New().String())
	req := hyperliquid.CreateOrderRequest{
		Coin:          coin,
		IsBuy:         isBuy,
		Price:         px,
		Size:          size,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: hyperliquid.TifIoc},
		},
	}

	if _, err := a.ex.Order(ctx, req, nil); err != nil {
		return domain.OrderReceipt{}, errors.Wrapf(err, "failed to place hyperliquid order for %s", coin)
	}
	return domain.OrderReceipt{ClientOrderID: cloid, Symbol: coin}, nil
}

// cloidFromID converts a free-form id into a valid cloid (0x + 32 hex chars).
func cloidFromID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return "0x" + hex.EncodeToString(sum[:16])
}

// MarginBalance summarizes the perp account.
func (a *HyperliquidAdapter) MarginBalance(ctx context.Context) (domain.MarginBalance, error) {
	st, err := a.info.UserState(ctx, a.accountAddr)
	if err != nil {
		return domain.MarginBalance{}, errors.Wrap(err, "get user state")
	}
	return marginSummary(st.MarginSummary, st.Withdrawable, st.AssetPositions)
}

func marginSummary(ms hyperliquid.MarginSummary, withdrawable string, positions []hyperliquid.AssetPosition) (domain.MarginBalance, error) {
	accountValue, err := parseAmount(ms.AccountValue)
	if err != nil {
		return domain.MarginBalance{}, errors.Wrap(err, "failed to parse account value")
	}
	used, err := parseAmount(ms.TotalMarginUsed)
	if err != nil {
		return domain.MarginBalance{}, errors.Wrap(err, "failed to parse total margin used")
	}
	net, err := parseAmount(withdrawable)
	if err != nil {
		return domain.MarginBalance{}, errors.Wrap(err, "failed to parse withdrawable")
	}

	pl := decimal.Zero
	for _, ap := range positions {
		upnl, err := parseAmount(ap.Position.UnrealizedPnl)
		if err != nil {
			return domain.MarginBalance{}, errors.Wrapf(err, "failed to parse unrealized pnl of %s", ap.Position.Coin)
		}
		pl = pl.Add(upnl)
	}

	if accountValue.IsZero() && used.IsZero() && len(positions) == 0 {
		return domain.MarginBalance{}, nil
	}

	return domain.MarginBalance{Summary: &domain.MarginSummary{
		Balance: accountValue,
		Net:     net,
		Min:     used,
		UserPL:  pl,
	}}, nil
}

// MarginLoans lists perp positions.
func (a *HyperliquidAdapter) MarginLoans(ctx context.Context) (domain.MarginLoans, error) {
	st, err := a.info.UserState(ctx, a.accountAddr)
	if err != nil {
		return domain.MarginLoans{}, errors.Wrap(err, "get user state")
	}

	positions, err := marginPositions(st.AssetPositions)
	if err != nil {
		return domain.MarginLoans{}, err
	}
	return domain.MarginLoans{Positions: positions}, nil
}

func marginPositions(assetPositions []hyperliquid.AssetPosition) ([]domain.MarginPosition, error) {
	var out []domain.MarginPosition
	for _, ap := range assetPositions {
		p := ap.Position
		size, err := parseAmount(p.Szi)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse size of %s", p.Coin)
		}
		if size.IsZero() {
			continue
		}

		pos := domain.MarginPosition{
			Symbol:   p.Coin,
			Amount:   size,
			Leverage: decimal.NewFromInt(int64(p.Leverage.Value)),
		}
		if p.EntryPx != nil {
			if pos.BasePrice, err = parseAmount(*p.EntryPx); err != nil {
				return nil, errors.Wrapf(err, "failed to parse entry price of %s", p.Coin)
			}
		}
		if p.LiquidationPx != nil {
			if pos.LiquidationPrice, err = parseAmount(*p.LiquidationPx); err != nil {
				return nil, errors.Wrapf(err, "failed to parse liquidation price of %s", p.Coin)
			}
		}
		if pos.PL, err = parseAmount(p.UnrealizedPnl); err != nil {
			return nil, errors.Wrapf(err, "failed to parse unrealized pnl of %s", p.Coin)
		}
		roe, err := parseAmount(p.ReturnOnEquity)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse return on equity of %s", p.Coin)
		}
		pos.PLPercent = roe.Mul(decimal.NewFromInt(100))
		out = append(out, pos)
	}
	return out, nil
}
