package simstate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/purse/internal/domain"
)

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStoreIn(t.TempDir(), "paper")
	require.NoError(t, err)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStore_SaveLoadKeepsOrder(t *testing.T) {
	store, err := NewStoreIn(t.TempDir(), "Paper Main")
	require.NoError(t, err)
	assert.Contains(t, store.path, "paper_main.json")

	wallet := domain.Balances{
		{Asset: "USDT", Amount: decimal.RequireFromString("1000")},
		{Asset: "BTC", Amount: decimal.RequireFromString("0.015")},
		{Asset: "ETH", Amount: decimal.RequireFromString("2")},
	}
	require.NoError(t, store.Save(NewState(wallet, time.Now())))

	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)

	got, err := state.Balances()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range wallet {
		assert.Equal(t, wallet[i].Asset, got[i].Asset)
		assert.True(t, wallet[i].Amount.Equal(got[i].Amount))
	}
}

func TestNewStoreIn_RejectsEmptyName(t *testing.T) {
	_, err := NewStoreIn(t.TempDir(), "__")
	assert.Error(t, err)
}
