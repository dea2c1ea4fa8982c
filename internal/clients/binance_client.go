package clients

import (
	"github.com/adshao/go-binance/v2"
)

const binanceTestnetURL = "https://testnet.binance.vision"

// NewBinanceClient creates a spot client. Sandbox points it at the spot testnet.
func NewBinanceClient(apiKey, apiSecret string, sandbox bool) *binance.Client {
	client := binance.NewClient(apiKey, apiSecret)
	if sandbox {
		client.BaseURL = binanceTestnetURL
	}
	return client
}

// NewPublicBinanceClient creates a client without API keys, usable for public market data only.
// Paper wallets use it for real market prices.
func NewPublicBinanceClient() *binance.Client {
	return binance.NewClient("", "")
}
