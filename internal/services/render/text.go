package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	noticeStyle = lipgloss.NewStyle().Faint(true)
)

// Text renders human readable tables.
type Text struct {
	out io.Writer
}

func NewText(out io.Writer) *Text {
	return &Text{out: out}
}

func (r *Text) Timestamp(ts string) {
	fmt.Fprintln(r.out, ts)
}

// Balance prints one table per exchange with a subtotal row per account.
// A single account target prints only the account table.
func (r *Text) Balance(report BalanceReport) {
	single := report.Target.Scope == domain.ScopeAccount

	for _, ex := range report.Exchanges {
		if !single {
			fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Balance for Exchange: %s", ex.Exchange)))
		}

		var totals []int
		rows := make([][]string, 0)
		for _, view := range ex.Accounts {
			for _, asset := range view.Assets {
				rows = append(rows, []string{
					asset.Asset,
					asset.Amount.String(),
					usd(asset.USDValue),
					asset.AccountID().String(),
				})
			}
			totals = append(totals, len(rows))
			rows = append(rows, []string{"Total Value for Account", "", usd(view.Total), view.Account.String()})
		}
		if !single {
			totals = append(totals, len(rows))
			rows = append(rows, []string{"Total Value for Exchange", "", usd(ex.Total), ex.Exchange.String()})
		}

		fmt.Fprintln(r.out, newTable("Asset", "Amount", "USD Value", "Account").
			StyleFunc(func(row, _ int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case contains(totals, row):
					return totalStyle
				default:
					return cellStyle
				}
			}).
			Rows(rows...).
			String())
	}
}

// Margin prints the generic or position based variant, chosen by report.Shape.
func (r *Text) Margin(report domain.MarginReport) {
	acc, ex := report.Account.Account, report.Account.Exchange
	positions := report.Shape == domain.MarginShapePositions.String()

	if b := report.Balance; b != nil {
		switch {
		case positions && b.Summary != nil:
			s := b.Summary
			fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Margin Balances for %s on %s:", acc, ex)))
			fmt.Fprintln(r.out, newTable().
				StyleFunc(plainStyle).
				Rows(
					[]string{"Margin Balance", s.Balance.String()},
					[]string{"Margin Net", s.Net.String()},
					[]string{"Margin Min", s.Min.String()},
					[]string{"User P&L", s.UserPL.String()},
					[]string{"User Swaps", s.UserSwaps.String()},
				).
				String())
		case !positions && len(b.Assets) > 0:
			rows := make([][]string, 0, len(b.Assets))
			for _, a := range b.Assets {
				rows = append(rows, []string{a.Asset, a.Free.String(), a.Borrowed.String(), a.Total.String()})
			}
			fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Margin Balances for %s on %s:", acc, ex)))
			fmt.Fprintln(r.out, newTable("Asset", "Free", "Borrowed", "Total").StyleFunc(plainStyle).Rows(rows...).String())
		default:
			fmt.Fprintln(r.out, noticeStyle.Render(fmt.Sprintf("No margin balances found for %s on %s.", acc, ex)))
		}
	}

	if l := report.Loans; l != nil {
		switch {
		case positions && len(l.Positions) > 0:
			rows := make([][]string, 0, len(l.Positions))
			for _, p := range l.Positions {
				rows = append(rows, []string{
					p.Symbol,
					p.Amount.StringFixed(4),
					p.BasePrice.StringFixed(4),
					p.MarginFunding.StringFixed(4),
					p.PL.StringFixed(2),
					p.PLPercent.StringFixed(2),
					p.LiquidationPrice.StringFixed(2),
					p.Leverage.StringFixed(4),
				})
			}
			fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Active Margin Loans for %s on %s:", acc, ex)))
			fmt.Fprintln(r.out, newTable("Symbol", "Amount", "Base Price", "Margin Funding", "P&L", "P&L%", "Price LIQ", "Leverage").
				StyleFunc(plainStyle).
				Rows(rows...).
				String())
		case !positions && len(l.Assets) > 0:
			rows := make([][]string, 0, len(l.Assets))
			for _, a := range l.Assets {
				rows = append(rows, []string{a.Asset, a.Borrowed.String()})
			}
			fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Active Margin Loans for %s on %s:", acc, ex)))
			fmt.Fprintln(r.out, newTable("Asset", "Borrowed").StyleFunc(plainStyle).Rows(rows...).String())
		default:
			fmt.Fprintln(r.out, noticeStyle.Render(fmt.Sprintf("ℹ️ No active margin loans found for %s on %s.", acc, ex)))
		}
	}
}

func (r *Text) MarginError(id domain.AccountID, err error) {
	fmt.Fprintf(r.out, "❌ Error handling margin for %s on %s: %v\n", id.Account, id.Exchange, err)
}

func (r *Text) Trade(line TradeLine) {
	text := fmt.Sprintf("%s %s of %s on %s", line.Action.Title(), line.Amount.String(), line.Asset, line.Account)
	switch {
	case line.Simulated:
		fmt.Fprintf(r.out, "[Simulation] %s\n", text)
	case line.Skipped != "":
		fmt.Fprintf(r.out, "Skipped %s: %s\n", text, line.Skipped)
	case line.OrderID != "":
		fmt.Fprintf(r.out, "%s (order %s)\n", text, line.OrderID)
	default:
		fmt.Fprintln(r.out, text)
	}
}

func (r *Text) History(entries []domain.TradeRecordEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, noticeStyle.Render("No live trades recorded."))
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprint(e.Index),
			e.Record.Time.Local().Format("2006-01-02 15:04:05"),
			e.Record.Action.Title(),
			e.Record.Amount.String(),
			e.Record.Asset,
			e.Record.AccountID().String(),
			e.Record.OrderID,
		})
	}
	fmt.Fprintln(r.out, newTable("#", "Time", "Action", "Amount", "Asset", "Account", "Order").StyleFunc(plainStyle).Rows(rows...).String())
}

func (r *Text) Message(msg string) {
	fmt.Fprintln(r.out, msg)
}

func newTable(headers ...string) *table.Table {
	t := table.New().Border(lipgloss.NormalBorder())
	if len(headers) > 0 {
		t = t.Headers(headers...)
	}
	return t
}

func plainStyle(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func usd(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func contains(rows []int, row int) bool {
	for _, r := range rows {
		if r == row {
			return true
		}
	}
	return false
}
