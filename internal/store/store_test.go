package store

import (
	"context"
	"testing"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSave_AssignsStrictlyIncreasingVersions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a := models.Account{ID: "a1", Name: "Everyday", Type: "checking", Currency: "AUD", Balance: 1000}

	var last int64
	for i := 0; i < 5; i++ {
		a.Balance += 100
		saved, err := s.Accounts.Save(ctx, a)
		require.NoError(t, err)
		assert.Greater(t, saved.SyncVersion, last)
		last = saved.SyncVersion
		a = saved
	}
}

func TestVersionCounter_SharedAcrossTables(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, err := s.Accounts.Save(ctx, models.Account{ID: "a1", Currency: "AUD"})
	require.NoError(t, err)
	tx, err := s.Transactions.Save(ctx, models.Transaction{ID: "t1", AccountID: "a1", Amount: -500})
	require.NoError(t, err)
	b, err := s.Budgets.Save(ctx, models.Budget{ID: "b1", Category: "food", Limit: 60000})
	require.NoError(t, err)

	assert.Less(t, a.SyncVersion, tx.SyncVersion)
	assert.Less(t, tx.SyncVersion, b.SyncVersion)
}

func TestSoftDelete_BumpsVersionAndKeepsRow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	saved, err := s.Accounts.Save(ctx, models.Account{ID: "a1", Currency: "AUD"})
	require.NoError(t, err)

	require.NoError(t, s.Accounts.SoftDelete(ctx, "a1"))

	got, err := s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Greater(t, got.SyncVersion, saved.SyncVersion)

	// hidden from listings, present in dumps
	visible, err := s.Accounts.GetAll(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.Accounts.GetAll(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSoftDelete_MissingOrAlreadyDeleted(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Accounts.SoftDelete(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Accounts.Save(ctx, models.Account{ID: "a1"})
	require.NoError(t, err)
	require.NoError(t, s.Accounts.SoftDelete(ctx, "a1"))

	err = s.Accounts.SoftDelete(ctx, "a1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChangedSince(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Accounts.Save(ctx, models.Account{ID: "a1"})
	require.NoError(t, err)
	second, err := s.Accounts.Save(ctx, models.Account{ID: "a2"})
	require.NoError(t, err)

	changed, err := s.Accounts.ChangedSince(ctx, first.SyncVersion)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "a2", changed[0].ID)
	assert.Equal(t, second.SyncVersion, changed[0].SyncVersion)

	changed, err = s.Accounts.ChangedSince(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, changed, 2)
}

func TestDumpRestore_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Accounts.Save(ctx, models.Account{ID: "a1", Name: "Everyday", Balance: 1000, Currency: "AUD"})
	require.NoError(t, err)
	_, err = s.Transactions.Save(ctx, models.Transaction{ID: "t1", AccountID: "a1", Amount: -500, Date: "2026-08-01"})
	require.NoError(t, err)
	require.NoError(t, s.Transactions.SoftDelete(ctx, "t1"))

	body, err := s.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, body.Accounts, 1)
	assert.Len(t, body.Transactions, 1)
	assert.True(t, body.Transactions[0].Deleted)

	other := setupStore(t)
	require.NoError(t, other.Restore(ctx, body))

	restored, err := other.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, body.Accounts, restored.Accounts)
	assert.Equal(t, body.Transactions, restored.Transactions)
}

func TestRestore_KeepsVersionCounterAhead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	body := models.NewBackupBody()
	body.Accounts = []models.Account{{ID: "a1", SyncVersion: 42}}
	require.NoError(t, s.Restore(ctx, body))

	// a fresh mutation must sort after the restored records
	saved, err := s.Accounts.Save(ctx, models.Account{ID: "a2"})
	require.NoError(t, err)
	assert.Greater(t, saved.SyncVersion, int64(42))
}

func TestApplyMerged_UpdatesMetadata(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	body := models.NewBackupBody()
	body.Accounts = []models.Account{{ID: "a1", SyncVersion: 5, Balance: 1500}}
	require.NoError(t, s.ApplyMerged(ctx, body, models.ConflictNone))

	m, err := s.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.LastSyncVersion)
	assert.Equal(t, models.ConflictNone, m.ConflictState)

	got, err := s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Balance)
	assert.Equal(t, int64(5), got.SyncVersion)
}

func TestMetadata_InitialState(t *testing.T) {
	s := setupStore(t)

	m, err := s.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.LastSyncVersion)
	assert.Equal(t, models.ConflictNone, m.ConflictState)
}

func TestKV_SetGetDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	got, err := s.KV.Get(ctx, KeyBackendConfig)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.KV.Set(ctx, KeyBackendConfig, []byte(`{"type":"localdir"}`)))
	require.NoError(t, s.KV.Set(ctx, KeyBackendConfig, []byte(`{"type":"s3"}`)))

	got, err = s.KV.Get(ctx, KeyBackendConfig)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"type":"s3"}`), got)

	require.NoError(t, s.KV.Delete(ctx, KeyBackendConfig))
	got, err = s.KV.Get(ctx, KeyBackendConfig)
	require.NoError(t, err)
	assert.Nil(t, got)
}
