package storage_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/internal/adapters/storage"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

func makeSnapshot() (ports.Snapshot, solana.PublicKey, solana.PublicKey) {
	snap := ports.NewSnapshot()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata := solana.NewWallet().PublicKey()

	snap.Accounts[owner] = []byte{1, 2, 3, 4}
	snap.Balances[owner] = math.MaxUint64 // no cabe en INTEGER de SQLite
	snap.Mints[mint] = ports.Mint{Decimals: 6, Authority: owner, Supply: 1_000_000}
	snap.TokenAccounts[ata] = ports.TokenAccount{Mint: mint, Owner: owner, Amount: 42}
	snap.Metadata[mint] = domain.TokenMetadata{Name: "Yes", Symbol: "YES", URI: "https://x/yes.json"}
	return snap, owner, mint
}

func TestSQLiteStorage_SaveAndLoadState(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	snap, _, _ := makeSnapshot()
	require.NoError(t, db.SaveState(ctx, snap, nil))

	got, err := db.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSQLiteStorage_LoadEmpty(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	got, err := db.LoadState(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Accounts)
	assert.NotNil(t, got.Balances)
}

func TestSQLiteStorage_UpdatesChangedRows(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	snap, owner, mint := makeSnapshot()
	require.NoError(t, db.SaveState(ctx, snap, nil))

	next := snap.Clone()
	next.Balances[owner] = 7
	next.Accounts[owner] = []byte{9, 9, 9, 9}
	m := next.Mints[mint]
	m.Supply = 5
	next.Mints[mint] = m
	require.NoError(t, db.SaveState(ctx, next, nil))

	got, err := db.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Balances[owner])
	assert.Equal(t, []byte{9, 9, 9, 9}, got.Accounts[owner])
	assert.Equal(t, uint64(5), got.Mints[mint].Supply)
}

func TestSQLiteStorage_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	snap, _, _ := makeSnapshot()
	require.NoError(t, db.SaveState(ctx, snap, nil))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSQLiteStorage_Events(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	market := solana.NewWallet().PublicKey()
	yes := domain.SideYes
	res := true

	events := []domain.Event{
		{ID: "e1", Kind: domain.EventBetPlaced, Market: market, Actor: market, Side: &yes, Amount: 50, PriceA: 10, PriceB: 9, Timestamp: now},
		{ID: "e2", Kind: domain.EventMarketResolved, Market: market, Result: &res, Timestamp: now.Add(time.Second)},
		{ID: "e3", Kind: domain.EventGlobalInitialized, Timestamp: now.Add(-time.Hour)},
	}
	require.NoError(t, db.SaveState(ctx, ports.NewSnapshot(), events))

	got, err := db.Events(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events[0], got[0])
	assert.Equal(t, events[1], got[1])
	assert.Nil(t, got[1].Side)
}
