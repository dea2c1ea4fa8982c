package clients

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKrakenSign(t *testing.T) {
	secret, err := base64.StdEncoding.DecodeString("kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg==")
	require.NoError(t, err)

	got := krakenSign(secret, "/0/private/AddOrder", "1616492376594",
		"nonce=1616492376594&ordertype=limit&pair=XBTUSD&price=37500&type=buy&volume=1.25")
	assert.Equal(t, "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb0nmbRn6H8ndwLUQ==", got)
}

func newKrakenServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/0/private/Balance", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("API-Key"))
		assert.NotEmpty(t, r.Header.Get("API-Sign"))
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.PostForm.Get("nonce"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":[],"result":{"ZUSD":"10.5","XXBT":"0.25","XXDG":"0.0000000000"}}`))
	})
	mux.HandleFunc("/0/public/AssetPairs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"altname":"XBTUSD"},"XBTUSDT":{"altname":"XBTUSDT"}}}`))
	})
	mux.HandleFunc("/0/public/Ticker", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XBTUSDT,XXBTZUSD", r.URL.Query().Get("pair"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"c":["60000.1","0.01"]},"XBTUSDT":{"c":["60010.0","0.5"]}}}`))
	})
	mux.HandleFunc("/0/private/AddOrder", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "XBTUSD", r.PostForm.Get("pair"))
		assert.Equal(t, "sell", r.PostForm.Get("type"))
		assert.Equal(t, "market", r.PostForm.Get("ordertype"))
		assert.Equal(t, "0.125", r.PostForm.Get("volume"))
		assert.Equal(t, "6f1c2a4e-5b7d-4c3e-9a21-8d0e4f6b7c13", r.PostForm.Get("cl_ord_id"))
		assert.Empty(t, r.PostForm.Get("userref"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":[],"result":{"txid":["OABC-123"]}}`))
	})
	mux.HandleFunc("/0/private/Bad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":["EAPI:Invalid key"]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestKrakenClient(t *testing.T) {
	srv := newKrakenServer(t)
	c, err := NewKrakenClientWithURL(srv.URL, "key", base64.StdEncoding.EncodeToString([]byte("secret")), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("balance is sorted by asset", func(t *testing.T) {
		balances, err := c.Balance(ctx)
		require.NoError(t, err)
		require.Len(t, balances, 3)
		assert.Equal(t, "XXBT", balances[0].Asset)
		assert.Equal(t, "XXDG", balances[1].Asset)
		assert.Equal(t, "ZUSD", balances[2].Asset)
		assert.Equal(t, "10.5", balances[2].Amount)
	})

	t.Run("prices keyed by name and altname", func(t *testing.T) {
		prices, err := c.LastPrices(ctx)
		require.NoError(t, err)
		assert.Equal(t, "60000.1", prices["XXBTZUSD"])
		assert.Equal(t, "60000.1", prices["XBTUSD"])
		assert.Equal(t, "60010.0", prices["XBTUSDT"])
	})

	t.Run("market order carries the client order id", func(t *testing.T) {
		txid, err := c.AddMarketOrder(ctx, "XBTUSD", "sell", "0.125", "6f1c2a4e-5b7d-4c3e-9a21-8d0e4f6b7c13")
		require.NoError(t, err)
		assert.Equal(t, []string{"OABC-123"}, txid)
	})

	t.Run("api errors are returned", func(t *testing.T) {
		var env krakenEnvelope[map[string]string]
		err := c.private(ctx, "Bad", make(map[string][]string), &env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EAPI:Invalid key")
	})
}

func TestNewKrakenClient_RejectsBadSecret(t *testing.T) {
	_, err := NewKrakenClient("key", "not base64!", false, zap.NewNop())
	assert.Error(t, err)
}

func TestNonceSource_Increases(t *testing.T) {
	var n nonceSource
	prev := n.next()
	for i := 0; i < 100; i++ {
		next := n.next()
		assert.Greater(t, next, prev)
		prev = next
	}
}
