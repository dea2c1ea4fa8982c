// Package commands parses terminal commands and dispatches them to the portfolio services.
package commands

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/internal/domain"
)

// Kind is the verb of a command.
type Kind int

const (
	KindInvalid Kind = iota
	KindEmpty
	KindBalance
	KindTrade
	KindMargin
	KindRefresh
	KindHistory
)

const defaultHistoryLimit = 20

// Command is one parsed input line.
type Command struct {
	Kind   Kind
	Verb   string
	Action domain.Action
	// Percent is nil when the percent token is missing or not a plain decimal; the trade is then skipped.
	Percent *decimal.Decimal
	Target  domain.Target
	// Limit is the number of history entries to show.
	Limit int
}

// Parse splits a whitespace separated command line.
// Unknown verbs yield KindInvalid without an error; malformed targets are errors.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: KindEmpty}, nil
	}

	cmd := Command{Verb: fields[0]}
	arg := func(def string, n int) string {
		if len(fields) > n {
			return fields[n]
		}
		return def
	}

	var err error
	switch fields[0] {
	case "balance":
		cmd.Kind = KindBalance
		cmd.Target, err = domain.ParseTarget(arg(domain.TargetAll, 1))
	case "buy", "sell":
		cmd.Kind = KindTrade
		cmd.Action, _ = domain.ParseAction(fields[0])
		cmd.Percent = parsePercent(arg("", 1))
		cmd.Target, err = domain.ParseTarget(arg(domain.TargetAll, 2))
	case "margin":
		cmd.Kind = KindMargin
	case "refresh":
		cmd.Kind = KindRefresh
		cmd.Target, err = domain.ParseTarget(arg(domain.TargetAll, 1))
	case "history":
		cmd.Kind = KindHistory
		cmd.Limit = defaultHistoryLimit
		if raw := arg("", 1); raw != "" {
			cmd.Limit, err = strconv.Atoi(raw)
			if err == nil && cmd.Limit <= 0 {
				err = errors.New("must be positive")
			}
			err = errors.Wrapf(err, "invalid history length %q", raw)
		}
	default:
		cmd.Kind = KindInvalid
	}
	if err != nil {
		return Command{}, err
	}

	return cmd, nil
}

// parsePercent accepts digits with at most one decimal point, nothing else.
func parsePercent(raw string) *decimal.Decimal {
	digits := strings.Replace(raw, ".", "", 1)
	if digits == "" {
		return nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil
		}
	}

	p, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &p
}
