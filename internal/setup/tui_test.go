package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/purse/internal/domain"
)

func TestParseAccountList(t *testing.T) {
	names, err := parseAccountList(" main, alt ")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "alt"}, names)

	for _, bad := range []string{"", "main,", "my_main", "main, main"} {
		_, err := parseAccountList(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePaperWallet(t *testing.T) {
	wallet, err := parsePaperWallet("usdt=1000, BTC = 0.1")
	require.NoError(t, err)
	require.Len(t, wallet, 2)
	assert.Equal(t, "USDT", wallet[0].Asset)
	assert.Equal(t, "0.1", wallet[1].Amount.String())

	for _, bad := range []string{"", "BTC", "BTC=-1", "BTC=lots"} {
		_, err := parsePaperWallet(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildConfig(t *testing.T) {
	conf, err := buildConfig(
		[]string{"kraken", "simulate"},
		[]string{"main", "paper, paper2"},
		false, true, "usdt, , usdc", "2.5", "USDT=500",
	)
	require.NoError(t, err)

	assert.Equal(t, []domain.AccountID{
		{Exchange: domain.ExchangeKraken, Account: "main"},
		{Exchange: domain.ExchangeSimulate, Account: "paper"},
		{Exchange: domain.ExchangeSimulate, Account: "paper2"},
	}, conf.Accounts.AccountIDs())
	assert.Equal(t, []string{"USDT", "USDC"}, conf.SkipAssets)
	assert.Equal(t, "2.5", conf.SkipSmallAssetUSD.String())
	assert.True(t, conf.Sandbox)
	assert.Len(t, conf.PaperWallets, 2)

	_, err = buildConfig([]string{"binance"}, []string{"main"}, false, false, "", "-1", "")
	assert.Error(t, err)
}
