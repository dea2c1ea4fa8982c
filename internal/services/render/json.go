package render

import (
	"encoding/json"
	"io"

	"github.com/vadiminshakov/purse/internal/domain"
)

// JSON renders one json object per line, tagged with its kind.
type JSON struct {
	enc *json.Encoder
}

func NewJSON(out io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(out)}
}

type envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

func (r *JSON) emit(kind string, data any) {
	// encoding plain structs of strings and decimals does not fail
	_ = r.enc.Encode(envelope{Kind: kind, Data: data})
}

func (r *JSON) Timestamp(ts string) {
	r.emit("time", ts)
}

func (r *JSON) Balance(report BalanceReport) {
	r.emit("balance", report)
}

func (r *JSON) Margin(report domain.MarginReport) {
	r.emit("margin", report)
}

func (r *JSON) MarginError(id domain.AccountID, err error) {
	r.emit("margin_error", struct {
		Account domain.AccountID `json:"account"`
		Error   string           `json:"error"`
	}{id, err.Error()})
}

func (r *JSON) Trade(line TradeLine) {
	r.emit("trade", line)
}

func (r *JSON) History(entries []domain.TradeRecordEntry) {
	if entries == nil {
		entries = []domain.TradeRecordEntry{}
	}
	r.emit("history", entries)
}

func (r *JSON) Message(msg string) {
	r.emit("message", msg)
}
