package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/purse/internal/domain"
)

// ExchangeAccounts lists the account names configured on one exchange.
type ExchangeAccounts struct {
	Exchange domain.Exchange
	Accounts []string
}

// Registry is the ordered exchange -> accounts mapping. The order of the yaml file is kept.
type Registry []ExchangeAccounts

// UnmarshalYAML decodes a mapping of exchange names to account name lists.
func (r *Registry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: accounts must be a mapping of exchange to account names", node.Line)
	}

	out := make(Registry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		exchange, err := domain.ParseExchange(key.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", key.Line)
		}

		var accounts []string
		if err := value.Decode(&accounts); err != nil {
			return errors.Wrapf(err, "line %d: accounts of %s must be a list of names", value.Line, exchange)
		}
		out = append(out, ExchangeAccounts{Exchange: exchange, Accounts: accounts})
	}

	*r = out
	return nil
}

// MarshalYAML encodes the registry back into an ordered mapping.
func (r Registry) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ea := range r {
		var value yaml.Node
		if err := value.Encode(ea.Accounts); err != nil {
			return nil, err
		}
		value.Style = yaml.FlowStyle
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: ea.Exchange.String()},
			&value,
		)
	}
	return node, nil
}

func (r Registry) validate() error {
	seenExchange := make(map[domain.Exchange]struct{}, len(r))
	for _, ea := range r {
		if _, dup := seenExchange[ea.Exchange]; dup {
			return fmt.Errorf("exchange %s is listed twice in 'accounts'", ea.Exchange)
		}
		seenExchange[ea.Exchange] = struct{}{}

		seenAccount := make(map[string]struct{}, len(ea.Accounts))
		for _, name := range ea.Accounts {
			if err := ValidateAccountName(name); err != nil {
				return errors.Wrapf(err, "exchange %s", ea.Exchange)
			}
			if _, dup := seenAccount[name]; dup {
				return fmt.Errorf("account %s is listed twice under %s", name, ea.Exchange)
			}
			seenAccount[name] = struct{}{}
		}
	}
	return nil
}

// ValidateAccountName rejects names that would break `<exchange>_<account>` targets.
func ValidateAccountName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("account name must not be empty")
	}
	if strings.ContainsAny(name, "_ \t") {
		return fmt.Errorf("account name %q must not contain underscores or spaces", name)
	}
	return nil
}

// AccountIDs returns every configured account in registry order.
func (r Registry) AccountIDs() []domain.AccountID {
	var ids []domain.AccountID
	for _, ea := range r {
		for _, name := range ea.Accounts {
			ids = append(ids, domain.AccountID{Exchange: ea.Exchange, Account: name})
		}
	}
	return ids
}

// Select returns the accounts inside target, in registry order.
func (r Registry) Select(target domain.Target) ([]domain.AccountID, error) {
	var ids []domain.AccountID
	for _, id := range r.AccountIDs() {
		if target.Matches(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.Wrapf(domain.ErrNoMatchingAccount, "%q", target.String())
	}
	return ids, nil
}
