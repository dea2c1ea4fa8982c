package auditlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/purse/internal/domain"
)

func record(id, asset string) domain.TradeRecord {
	return domain.TradeRecord{
		ID:       id,
		Time:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Action:   domain.ActionSell,
		Asset:    asset,
		Amount:   decimal.RequireFromString("0.125"),
		Exchange: domain.ExchangeBinance,
		Account:  "main",
		Symbol:   asset + "USDC",
	}
}

func TestWALStore_AppendAndRecent(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for i, asset := range []string{"BTC", "ETH", "SOL"} {
		idx, err := store.Append(record(string(rune('a'+i)), asset))
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), idx)
	}

	entries, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ETH", entries[0].Record.Asset)
	assert.Equal(t, "SOL", entries[1].Record.Asset)
	assert.Equal(t, uint64(3), entries[1].Index)
	assert.True(t, entries[1].Record.Amount.Equal(decimal.RequireFromString("0.125")))
	assert.Equal(t, domain.ActionSell, entries[1].Record.Action)

	all, err := store.Recent(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWALStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	_, err = store.Append(record("a", "BTC"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint64(1), reopened.CurrentIndex())
	entries, err := reopened.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BTC", entries[0].Record.Asset)
}

func TestWALStore_Validation(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Append(domain.TradeRecord{})
	assert.Error(t, err)

	entries, err := store.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var nilStore *WALStore
	_, err = nilStore.Append(record("a", "BTC"))
	assert.Error(t, err)
}

func TestWALStore_RecentStopsAtRotatedSegments(t *testing.T) {
	store, err := newWALStore(gowal.Config{
		Dir:              t.TempDir(),
		Prefix:           "audit_",
		SegmentThreshold: 2,
		MaxSegments:      2,
		IsInSyncDiskMode: true,
	})
	require.NoError(t, err)
	defer store.Close()

	const total = 12
	for i := 0; i < total; i++ {
		_, err := store.Append(record(fmt.Sprintf("t%d", i), "BTC"))
		require.NoError(t, err)
	}

	entries, err := store.Recent(total)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.LessOrEqual(t, len(entries), total)

	// whatever survived is a contiguous tail ending at the newest trade
	last := entries[len(entries)-1]
	assert.Equal(t, uint64(total), last.Index)
	assert.Equal(t, fmt.Sprintf("t%d", total-1), last.Record.ID)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].Index+1, entries[i].Index)
	}
}
