package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/domain"
	"github.com/vadiminshakov/purse/internal/services/adapter"
	"github.com/vadiminshakov/purse/internal/services/render"
	"github.com/vadiminshakov/purse/internal/services/sizer"
)

// timeLayout is the format of the line printed before every command.
const timeLayout = "2006-01-02 15:04:05"

type accountViewer interface {
	PrepareAccountView(ctx context.Context, id domain.AccountID) (domain.AccountView, error)
}

type adapterSource interface {
	Get(ctx context.Context, id domain.AccountID) (adapter.Adapter, error)
}

type balanceCache interface {
	Invalidate(id domain.AccountID)
	InvalidateMatching(target domain.Target) int
}

type auditLog interface {
	Append(record domain.TradeRecord) (uint64, error)
	Recent(n int) ([]domain.TradeRecordEntry, error)
}

// Dispatcher runs parsed commands one at a time.
type Dispatcher struct {
	l        *zap.Logger
	conf     config.Config
	views    accountViewer
	adapters adapterSource
	cache    balanceCache
	audit    auditLog
	out      render.Renderer
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	l *zap.Logger,
	conf config.Config,
	views accountViewer,
	adapters adapterSource,
	cache balanceCache,
	audit auditLog,
	out render.Renderer,
) *Dispatcher {
	if l == nil {
		l = zap.NewNop()
	}
	return &Dispatcher{
		l:        l,
		conf:     conf,
		views:    views,
		adapters: adapters,
		cache:    cache,
		audit:    audit,
		out:      out,
		now:      time.Now,
	}
}

// Execute parses and runs one command line. The returned error aborts only this command.
func (d *Dispatcher) Execute(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}
	if cmd.Kind == KindEmpty {
		return nil
	}

	d.out.Timestamp(d.now().Format(timeLayout))

	switch cmd.Kind {
	case KindBalance:
		return d.balance(ctx, cmd.Target)
	case KindTrade:
		if cmd.Percent == nil || cmd.Percent.IsZero() {
			d.l.Debug("trade skipped, no percent", zap.String("command", line))
			return nil
		}
		return d.trade(ctx, cmd.Action, *cmd.Percent, cmd.Target)
	case KindMargin:
		d.margin(ctx)
		return nil
	case KindRefresh:
		return d.refresh(cmd.Target)
	case KindHistory:
		return d.history(cmd.Limit)
	default:
		d.out.Message("Invalid command!")
		return nil
	}
}

func (d *Dispatcher) balance(ctx context.Context, target domain.Target) error {
	ids, err := d.conf.Accounts.Select(target)
	if err != nil {
		return err
	}

	report := render.BalanceReport{Target: target}
	for _, id := range ids {
		view, err := d.views.PrepareAccountView(ctx, id)
		if err != nil {
			return err
		}

		n := len(report.Exchanges)
		if n == 0 || report.Exchanges[n-1].Exchange != id.Exchange {
			report.Exchanges = append(report.Exchanges, render.ExchangeBalance{Exchange: id.Exchange, Total: decimal.Zero})
			n++
		}
		ex := &report.Exchanges[n-1]
		ex.Accounts = append(ex.Accounts, view)
		ex.Total = ex.Total.Add(view.Total)
	}

	d.out.Balance(report)
	return nil
}

func (d *Dispatcher) trade(ctx context.Context, action domain.Action, percent decimal.Decimal, target domain.Target) error {
	ids, err := d.conf.Accounts.Select(target)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := d.tradeAccount(ctx, action, percent, id); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) tradeAccount(ctx context.Context, action domain.Action, percent decimal.Decimal, id domain.AccountID) error {
	view, err := d.views.PrepareAccountView(ctx, id)
	if err != nil {
		return err
	}

	traded := false
	defer func() {
		if traded {
			d.cache.Invalidate(id)
		}
	}()

	for _, asset := range view.Assets {
		if d.conf.IsSkipped(asset.Asset) {
			continue
		}

		amount := sizer.Size(asset.Asset, asset.Amount, percent)
		line := render.TradeLine{Action: action, Asset: asset.Asset, Amount: amount, Account: id}

		if !d.conf.Live {
			line.Simulated = true
			d.out.Trade(line)
			continue
		}

		if amount.IsZero() {
			line.Skipped = "amount rounds to zero"
			d.l.Warn("trade skipped",
				zap.String("account", id.String()),
				zap.String("asset", asset.Asset),
				zap.String("held", asset.Amount.String()))
			d.out.Trade(line)
			continue
		}

		ad, err := d.adapters.Get(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "failed to open account %s", id)
		}

		receipt, err := adapter.ExecuteAction(ctx, ad, action, asset.Asset, amount)
		if err != nil {
			return errors.Wrapf(err, "failed to %s %s %s on %s", action, amount, asset.Asset, id)
		}
		traded = true
		line.OrderID = receipt.OrderID

		record := domain.TradeRecord{
			ID:       uuid.NewString(),
			Time:     d.now().UTC(),
			Action:   action,
			Asset:    asset.Asset,
			Amount:   amount,
			Exchange: id.Exchange,
			Account:  id.Account,
			Symbol:   receipt.Symbol,
			OrderID:  receipt.OrderID,
		}
		d.l.Info("trade executed", zap.String("trade", record.String()), zap.String("order_id", receipt.OrderID))
		if _, err := d.audit.Append(record); err != nil {
			// the order is already placed, keep going with the rest of the account
			d.l.Error("failed to write trade to audit log", zap.String("trade", record.String()), zap.Error(err))
			d.out.Message(fmt.Sprintf("⚠️ trade not written to audit log: %v", err))
		}

		d.out.Trade(line)
	}

	return nil
}

// margin reports every configured account. Failures are printed per account and never abort the loop.
// Data fetched before a failure is still printed.
func (d *Dispatcher) margin(ctx context.Context) {
	for _, id := range d.conf.Accounts.AccountIDs() {
		report, err := d.marginReport(ctx, id)
		if report.Balance != nil || report.Loans != nil {
			d.out.Margin(report)
		}
		if err != nil {
			d.l.Error("margin report failed", zap.String("account", id.String()), zap.Error(err))
			d.out.MarginError(id, err)
		}
	}
}

func (d *Dispatcher) marginReport(ctx context.Context, id domain.AccountID) (domain.MarginReport, error) {
	report := domain.MarginReport{Account: id}

	profile, err := domain.ProfileOf(id.Exchange)
	if err != nil {
		return report, err
	}
	report.Shape = profile.MarginShape.String()

	ad, err := d.adapters.Get(ctx, id)
	if err != nil {
		return report, err
	}

	if r, ok := adapter.MarginBalanceOf(ad); ok {
		balance, err := r.MarginBalance(ctx)
		if err != nil {
			return report, err
		}
		report.Balance = &balance
	}

	if r, ok := adapter.MarginLoansOf(ad); ok {
		loans, err := r.MarginLoans(ctx)
		if err != nil {
			return report, err
		}
		if profile.MarginShape == domain.MarginShapePositions {
			loans.Positions = domain.OpenPositions(loans.Positions)
		}
		report.Loans = &loans
	}

	return report, nil
}

func (d *Dispatcher) refresh(target domain.Target) error {
	if target.Scope != domain.ScopeAll {
		if _, err := d.conf.Accounts.Select(target); err != nil {
			return err
		}
	}

	n := d.cache.InvalidateMatching(target)
	d.l.Debug("balance cache invalidated", zap.String("target", target.String()), zap.Int("dropped", n))
	d.out.Message(fmt.Sprintf("Dropped %d cached balance(s) for %s.", n, target))
	return nil
}

func (d *Dispatcher) history(limit int) error {
	entries, err := d.audit.Recent(limit)
	if err != nil {
		return errors.Wrap(err, "failed to read audit log")
	}
	d.out.History(entries)
	return nil
}
