package domain

import (
	"fmt"
	"strings"
)

// Action is the side of a market order.
type Action int

const (
	ActionBuy Action = iota
	ActionSell
)

const (
	actionStringBuy  = "buy"
	actionStringSell = "sell"
)

// ParseAction converts "buy" or "sell" into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case actionStringBuy:
		return ActionBuy, nil
	case actionStringSell:
		return ActionSell, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return actionStringBuy
	case ActionSell:
		return actionStringSell
	default:
		return "unknown"
	}
}

// Title returns the capitalized action, as printed in trade lines.
func (a Action) Title() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
