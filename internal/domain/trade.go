package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderReceipt is what an adapter reports back after placing an order.
type OrderReceipt struct {
	// OrderID is the exchange order id, when the exchange returns one.
	OrderID string
	// ClientOrderID is the id we sent with the order.
	ClientOrderID string
	Symbol        string
}

// TradeRecord is an executed live trade as written to the audit log.
type TradeRecord struct {
	ID       string          `json:"id"`
	Time     time.Time       `json:"ts"`
	Action   Action          `json:"action"`
	Asset    string          `json:"asset"`
	Amount   decimal.Decimal `json:"amount"`
	Exchange Exchange        `json:"exchange"`
	Account  string          `json:"account"`
	Symbol   string          `json:"symbol,omitempty"`
	OrderID  string          `json:"order_id,omitempty"`
}

// String returns a human-readable string representation.
func (t TradeRecord) String() string {
	return fmt.Sprintf("%s %s %s of %s on %s_%s",
		t.Time.Format(time.DateTime), t.Action.Title(), t.Amount.String(), t.Asset, t.Exchange, t.Account)
}

// TradeRecordEntry bundles a record with its audit log index.
type TradeRecordEntry struct {
	Index  uint64
	Record TradeRecord
}

// AccountID returns the account the trade was placed on.
func (t TradeRecord) AccountID() AccountID {
	return AccountID{Exchange: t.Exchange, Account: t.Account}
}
