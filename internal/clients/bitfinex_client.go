package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/pkg/retrier"
)

const (
	bitfinexAuthURL   = "https://api.bitfinex.com"
	bitfinexPublicURL = "https://api-pub.bitfinex.com"
)

// ErrBitfinexNoSandbox is returned when a bitfinex client is requested in sandbox mode.
var ErrBitfinexNoSandbox = errors.New("bitfinex has no sandbox environment")

// BitfinexClient is a minimal Bitfinex v2 REST client.
type BitfinexClient struct {
	auth   *resty.Client
	public *resty.Client
	key    string
	secret string
	nonce  nonceSource
	retry  *retrier.Retrier
}

// BitfinexWallet is one row of /auth/r/wallets.
type BitfinexWallet struct {
	Type     string
	Currency string
	Balance  json.Number
}

// BitfinexMarginBase is the account wide margin info.
type BitfinexMarginBase struct {
	UserPL        json.Number
	UserSwaps     json.Number
	MarginBalance json.Number
	MarginNet     json.Number
	MarginMin     json.Number
}

// BitfinexPosition is one row of /auth/r/positions.
type BitfinexPosition struct {
	Symbol           string
	Status           string
	Amount           json.Number
	BasePrice        json.Number
	MarginFunding    json.Number
	PL               json.Number
	PLPercent        json.Number
	LiquidationPrice json.Number
	Leverage         json.Number
}

// NewBitfinexClient creates a client with production endpoints.
func NewBitfinexClient(apiKey, apiSecret string, sandbox bool, l *zap.Logger) (*BitfinexClient, error) {
	if sandbox {
		return nil, ErrBitfinexNoSandbox
	}
	return NewBitfinexClientWithURL(bitfinexAuthURL, bitfinexPublicURL, apiKey, apiSecret, l), nil
}

// NewBitfinexClientWithURL creates a client against explicit base URLs.
func NewBitfinexClientWithURL(authURL, publicURL, apiKey, apiSecret string, l *zap.Logger) *BitfinexClient {
	return &BitfinexClient{
		auth:   resty.New().SetBaseURL(strings.TrimSuffix(authURL, "/")).SetTimeout(30 * time.Second),
		public: resty.New().SetBaseURL(strings.TrimSuffix(publicURL, "/")).SetTimeout(30 * time.Second),
		key:    apiKey,
		secret: apiSecret,
		retry:  retrier.New(retrier.WithLogger(l, "bitfinex public")),
	}
}

// Wallets returns every wallet row in API order.
func (c *BitfinexClient) Wallets(ctx context.Context) ([]BitfinexWallet, error) {
	rows, err := c.authRows(ctx, "auth/r/wallets", nil)
	if err != nil {
		return nil, err
	}

	out := make([]BitfinexWallet, 0, len(rows))
	for _, row := range rows {
		out = append(out, BitfinexWallet{
			Type:     stringAt(row, 0),
			Currency: stringAt(row, 1),
			Balance:  numberAt(row, 2),
		})
	}
	return out, nil
}

// MarginBase returns the base margin info of the account.
func (c *BitfinexClient) MarginBase(ctx context.Context) (BitfinexMarginBase, error) {
	var raw []any
	if err := c.authCall(ctx, "auth/r/info/margin/base", nil, &raw); err != nil {
		return BitfinexMarginBase{}, err
	}

	// ["base", [USER_PL, USER_SWAPS, MARGIN_BALANCE, MARGIN_NET, MARGIN_MIN]]
	if len(raw) < 2 {
		return BitfinexMarginBase{}, errors.New("bitfinex margin base: unexpected response")
	}
	values, ok := raw[1].([]any)
	if !ok {
		return BitfinexMarginBase{}, errors.New("bitfinex margin base: unexpected response")
	}

	return BitfinexMarginBase{
		UserPL:        numberAt(values, 0),
		UserSwaps:     numberAt(values, 1),
		MarginBalance: numberAt(values, 2),
		MarginNet:     numberAt(values, 3),
		MarginMin:     numberAt(values, 4),
	}, nil
}

// Positions returns the active margin positions.
func (c *BitfinexClient) Positions(ctx context.Context) ([]BitfinexPosition, error) {
	rows, err := c.authRows(ctx, "auth/r/positions", nil)
	if err != nil {
		return nil, err
	}

	out := make([]BitfinexPosition, 0, len(rows))
	for _, row := range rows {
		out = append(out, BitfinexPosition{
			Symbol:           stringAt(row, 0),
			Status:           stringAt(row, 1),
			Amount:           numberAt(row, 2),
			BasePrice:        numberAt(row, 3),
			MarginFunding:    numberAt(row, 4),
			PL:               numberAt(row, 6),
			PLPercent:        numberAt(row, 7),
			LiquidationPrice: numberAt(row, 8),
			Leverage:         numberAt(row, 9),
		})
	}
	return out, nil
}

// SubmitMarketOrder places an exchange market order. Negative amounts sell.
func (c *BitfinexClient) SubmitMarketOrder(ctx context.Context, symbol, amount string, cid int64) (string, error) {
	body := map[string]any{
		"type":   "EXCHANGE MARKET",
		"symbol": symbol,
		"amount": amount,
		"cid":    cid,
	}

	// [MTS, TYPE, MESSAGE_ID, null, [[ID, GID, CID, SYMBOL, ...]], CODE, STATUS, TEXT]
	var raw []any
	if err := c.authCall(ctx, "auth/w/order/submit", body, &raw); err != nil {
		return "", err
	}
	if len(raw) > 6 {
		if status, _ := raw[6].(string); status != "" && status != "SUCCESS" {
			return "", errors.Errorf("bitfinex order rejected: %s %s", status, stringAt(raw, 7))
		}
	}
	if len(raw) > 4 {
		if orders, ok := raw[4].([]any); ok && len(orders) > 0 {
			if order, ok := orders[0].([]any); ok {
				return numberAt(order, 0).String(), nil
			}
		}
	}
	return "", nil
}

// LastPrices returns last trade prices of all trading pairs, keyed by symbol (tBTCUSD).
func (c *BitfinexClient) LastPrices(ctx context.Context) (map[string]string, error) {
	return retrier.DoWithData(c.retry, ctx, func(ctx context.Context) (map[string]string, error) {
		resp, err := c.public.R().
			SetContext(ctx).
			SetQueryParam("symbols", "ALL").
			Get("/v2/tickers")
		if err != nil {
			return nil, errors.Wrap(err, "bitfinex tickers")
		}
		if resp.IsError() {
			return nil, errors.Errorf("bitfinex tickers: http %d", resp.StatusCode())
		}

		var rows [][]any
		if err := decodeNumbers(resp.Body(), &rows); err != nil {
			return nil, errors.Wrap(err, "decode bitfinex tickers")
		}

		prices := make(map[string]string, len(rows))
		for _, row := range rows {
			symbol := stringAt(row, 0)
			// funding tickers (f...) have a different layout
			if !strings.HasPrefix(symbol, "t") {
				continue
			}
			// [SYMBOL, BID, BID_SIZE, ASK, ASK_SIZE, DAILY_CHANGE, DAILY_CHANGE_RELATIVE, LAST_PRICE, ...]
			if last := numberAt(row, 7); last != "" {
				prices[symbol] = last.String()
			}
		}
		return prices, nil
	})
}

func (c *BitfinexClient) authRows(ctx context.Context, path string, body any) ([][]any, error) {
	var rows [][]any
	if err := c.authCall(ctx, path, body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *BitfinexClient) authCall(ctx context.Context, path string, body any, out any) error {
	if body == nil {
		body = map[string]any{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode bitfinex request")
	}

	nonce := strconv.FormatInt(c.nonce.next(), 10)
	resp, err := c.auth.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("bfx-nonce", nonce).
		SetHeader("bfx-apikey", c.key).
		SetHeader("bfx-signature", bitfinexSign(c.secret, path, nonce, payload)).
		SetBody(payload).
		Post("/v2/" + path)
	if err != nil {
		return errors.Wrapf(err, "bitfinex %s", path)
	}
	if resp.IsError() {
		return errors.Errorf("bitfinex %s: http %d: %s", path, resp.StatusCode(), resp.String())
	}

	return errors.Wrapf(decodeNumbers(resp.Body(), out), "decode bitfinex %s", path)
}

// bitfinexSign computes hex(HMAC-SHA384(secret, "/api/v2/" + path + nonce + body)).
func bitfinexSign(secret, path, nonce string, body []byte) string {
	mac := hmac.New(sha512.New384, []byte(secret))
	mac.Write([]byte("/api/v2/" + path + nonce))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeNumbers(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

func stringAt(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}

// numberAt returns an empty number for missing or null fields.
func numberAt(row []any, i int) json.Number {
	if i >= len(row) {
		return ""
	}
	n, _ := row[i].(json.Number)
	return n
}
