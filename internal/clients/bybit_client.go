package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient creates a v5 client, pointed at the testnet in sandbox mode.
func NewBybitClient(apiKey, apiSecret string, sandbox bool) *bybit.Client {
	if sandbox {
		return bybit.NewTestClient().WithAuth(apiKey, apiSecret)
	}
	client := bybit.NewClient().WithAuth(apiKey, apiSecret)

	return client
}
