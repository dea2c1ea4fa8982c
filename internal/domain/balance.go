package domain

import "github.com/shopspring/decimal"

// Balance is the free amount of one asset, spelled the way the exchange spells it.
type Balance struct {
	Asset  string
	Amount decimal.Decimal
}

// Balances keeps the order the exchange reported assets in.
type Balances []Balance

// Clone returns a copy that does not share the backing array.
func (b Balances) Clone() Balances {
	if b == nil {
		return nil
	}
	out := make(Balances, len(b))
	copy(out, b)
	return out
}

// PriceTable maps exchange-native pair symbols to last prices.
type PriceTable map[string]decimal.Decimal

// ValuedAsset is a holding annotated with its USD value and owning account.
type ValuedAsset struct {
	Asset    string          `json:"asset"`
	Amount   decimal.Decimal `json:"amount"`
	USDValue decimal.Decimal `json:"usd_value"`
	Exchange Exchange        `json:"exchange"`
	Account  string          `json:"account"`
}

// AccountID returns the owning account.
func (v ValuedAsset) AccountID() AccountID {
	return AccountID{Exchange: v.Exchange, Account: v.Account}
}

// AccountView is the valued, sorted content of one account.
type AccountView struct {
	Account AccountID       `json:"account"`
	Assets  []ValuedAsset   `json:"assets"`
	Total   decimal.Decimal `json:"total_usd"`
}
