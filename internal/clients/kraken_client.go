package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/purse/pkg/retrier"
)

const (
	krakenURL        = "https://api.kraken.com"
	krakenSandboxURL = "https://api.sandbox.kraken.com"
)

// KrakenClient is a minimal Kraken spot REST client.
type KrakenClient struct {
	http   *resty.Client
	key    string
	secret []byte
	nonce  nonceSource
	retry  *retrier.Retrier
}

type krakenEnvelope[T any] struct {
	Error  []string `json:"error"`
	Result T        `json:"result"`
}

func (e krakenEnvelope[T]) err() error {
	if len(e.Error) == 0 {
		return nil
	}
	return errors.Errorf("kraken: %s", strings.Join(e.Error, "; "))
}

// KrakenBalance is one asset of the account balance.
type KrakenBalance struct {
	Asset  string
	Amount string
}

// NewKrakenClient creates a client. apiSecret is the base64 secret from the Kraken UI.
func NewKrakenClient(apiKey, apiSecret string, sandbox bool, l *zap.Logger) (*KrakenClient, error) {
	baseURL := krakenURL
	if sandbox {
		baseURL = krakenSandboxURL
	}
	return NewKrakenClientWithURL(baseURL, apiKey, apiSecret, l)
}

// NewKrakenClientWithURL creates a client against an explicit base URL.
func NewKrakenClientWithURL(baseURL, apiKey, apiSecret string, l *zap.Logger) (*KrakenClient, error) {
	secret, err := base64.StdEncoding.DecodeString(apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "kraken api secret must be base64")
	}

	return &KrakenClient{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(30 * time.Second),
		key:    apiKey,
		secret: secret,
		retry:  retrier.New(retrier.WithLogger(l, "kraken public")),
	}, nil
}

// Balance returns non-empty balances ordered by asset code.
func (c *KrakenClient) Balance(ctx context.Context) ([]KrakenBalance, error) {
	var env krakenEnvelope[map[string]string]
	if err := c.private(ctx, "Balance", url.Values{}, &env); err != nil {
		return nil, err
	}

	// the API returns an object, order is not meaningful
	assets := make([]string, 0, len(env.Result))
	for asset := range env.Result {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	out := make([]KrakenBalance, 0, len(assets))
	for _, asset := range assets {
		out = append(out, KrakenBalance{Asset: asset, Amount: env.Result[asset]})
	}
	return out, nil
}

// LastPrices returns the last trade price of every tradable pair, keyed by both
// the pair name (XXBTZUSD) and its altname (XBTUSD).
func (c *KrakenClient) LastPrices(ctx context.Context) (map[string]string, error) {
	return retrier.DoWithData(c.retry, ctx, func(ctx context.Context) (map[string]string, error) {
		var pairs krakenEnvelope[map[string]struct {
			Altname string `json:"altname"`
		}]
		if err := c.public(ctx, "AssetPairs", nil, &pairs); err != nil {
			return nil, err
		}

		names := make([]string, 0, len(pairs.Result))
		for name := range pairs.Result {
			names = append(names, name)
		}
		sort.Strings(names)

		var tickers krakenEnvelope[map[string]struct {
			// c = [price, lot volume]
			Close []string `json:"c"`
		}]
		if err := c.public(ctx, "Ticker", map[string]string{"pair": strings.Join(names, ",")}, &tickers); err != nil {
			return nil, err
		}

		prices := make(map[string]string, 2*len(tickers.Result))
		for name, pair := range pairs.Result {
			t, ok := tickers.Result[name]
			if !ok || len(t.Close) == 0 {
				continue
			}
			prices[name] = t.Close[0]
			if pair.Altname != "" {
				prices[pair.Altname] = t.Close[0]
			}
		}
		return prices, nil
	})
}

// AddMarketOrder places a market order and returns the transaction ids.
func (c *KrakenClient) AddMarketOrder(ctx context.Context, pair, side, volume, clientOrderID string) ([]string, error) {
	form := url.Values{}
	form.Set("pair", pair)
	form.Set("type", side)
	form.Set("ordertype", "market")
	form.Set("volume", volume)
	if clientOrderID != "" {
		form.Set("cl_ord_id", clientOrderID)
	}

	var env krakenEnvelope[struct {
		Txid []string `json:"txid"`
	}]
	if err := c.private(ctx, "AddOrder", form, &env); err != nil {
		return nil, err
	}
	return env.Result.Txid, nil
}

func (c *KrakenClient) public(ctx context.Context, method string, query map[string]string, out interface{ err() error }) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		Get("/0/public/" + method)
	if err != nil {
		return errors.Wrapf(err, "kraken %s", method)
	}
	if resp.IsError() {
		return errors.Errorf("kraken %s: http %d", method, resp.StatusCode())
	}
	return out.err()
}

func (c *KrakenClient) private(ctx context.Context, method string, form url.Values, out interface{ err() error }) error {
	path := "/0/private/" + method
	nonce := strconv.FormatInt(c.nonce.next(), 10)
	form.Set("nonce", nonce)
	body := form.Encode()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("API-Key", c.key).
		SetHeader("API-Sign", krakenSign(c.secret, path, nonce, body)).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(body).
		SetResult(out).
		Post(path)
	if err != nil {
		return errors.Wrapf(err, "kraken %s", method)
	}
	if resp.IsError() {
		return errors.Errorf("kraken %s: http %d", method, resp.StatusCode())
	}
	return out.err()
}

// krakenSign computes base64(HMAC-SHA512(secret, path + SHA256(nonce + body))).
func krakenSign(secret []byte, path, nonce, body string) string {
	sum := sha256.Sum256([]byte(nonce + body))

	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(sum[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
