package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedTarget   = errors.New("malformed target")
	ErrNoMatchingAccount = errors.New("target matches no configured account")
)

// TargetAll selects every configured account.
const TargetAll = "all"

// AccountID identifies one credential set on one exchange.
type AccountID struct {
	Exchange Exchange `json:"exchange"`
	Account  string   `json:"account"`
}

// String returns the exchange_account label.
func (a AccountID) String() string {
	return fmt.Sprintf("%s_%s", a.Exchange, a.Account)
}

// TargetScope is the breadth of a command target.
type TargetScope int

const (
	ScopeAll TargetScope = iota
	ScopeExchange
	ScopeAccount
)

// Target is the account selection of a single command.
type Target struct {
	Scope    TargetScope
	Exchange Exchange
	Account  string
}

// ParseTarget parses `all`, `<exchange>` or `<exchange>_<account>`.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == TargetAll {
		return Target{Scope: ScopeAll}, nil
	}

	parts := strings.Split(raw, "_")
	if len(parts) > 2 || parts[0] == "" {
		return Target{}, errors.Wrapf(ErrMalformedTarget, "%q, expected <exchange>_<account>", raw)
	}
	exchange, err := ParseExchange(parts[0])
	if err != nil {
		return Target{}, err
	}
	if len(parts) == 1 {
		return Target{Scope: ScopeExchange, Exchange: exchange}, nil
	}
	if parts[1] == "" {
		return Target{}, errors.Wrapf(ErrMalformedTarget, "%q has an empty account", raw)
	}

	return Target{Scope: ScopeAccount, Exchange: exchange, Account: parts[1]}, nil
}

// Matches reports whether id is inside the target.
func (t Target) Matches(id AccountID) bool {
	switch t.Scope {
	case ScopeAll:
		return true
	case ScopeExchange:
		return id.Exchange == t.Exchange
	default:
		return id.Exchange == t.Exchange && id.Account == t.Account
	}
}

// String returns the string representation.
func (t Target) String() string {
	switch t.Scope {
	case ScopeAll:
		return TargetAll
	case ScopeExchange:
		return t.Exchange.String()
	default:
		return AccountID{Exchange: t.Exchange, Account: t.Account}.String()
	}
}
