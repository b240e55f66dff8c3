package store

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_CreateAndRestore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Accounts.Save(ctx, models.Account{ID: "a1", Balance: 1000, Currency: "AUD"})
	require.NoError(t, err)

	id, err := s.Snapshots.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// mutate after the snapshot
	a, err := s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	a.Balance = 9999
	_, err = s.Accounts.Save(ctx, a)
	require.NoError(t, err)
	_, err = s.Accounts.Save(ctx, models.Account{ID: "a2"})
	require.NoError(t, err)

	require.NoError(t, s.Snapshots.Restore(ctx, id))

	got, err := s.Accounts.GetAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1000), got[0].Balance)
}

func TestSnapshot_SameSecondOrderingIsExact(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// An exact-second timestamp followed by a mid-second one in the same
	// second: formatted text with trimmed fractional zeros sorts the
	// exact-second row as newer, the integer storage must not.
	older := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	newest := older.Add(500 * time.Millisecond)

	for _, snap := range []struct {
		id string
		at time.Time
	}{
		{"snap-exact-second", older},
		{"snap-mid-second", newest},
	} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO snapshots (id, created_at, body) VALUES (?, ?, ?)`,
			snap.id, snap.at.UnixNano(), `{"version":1}`)
		require.NoError(t, err)
	}

	list, err := s.Snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "snap-mid-second", list[0].ID)
	assert.Equal(t, newest, list[0].CreatedAt)

	require.NoError(t, s.Snapshots.Prune(ctx, 1))
	list, err = s.Snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "snap-mid-second", list[0].ID)
}

func TestSnapshot_RestoreUnknownID(t *testing.T) {
	s := setupStore(t)
	err := s.Snapshots.Restore(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSnapshot_PruneKeepsNewest(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := s.Snapshots.Create(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond) // distinct created_at ordering
	}

	require.NoError(t, s.Snapshots.Prune(ctx, 2))

	list, err := s.Snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[3], list[0].ID)
	assert.Equal(t, ids[2], list[1].ID)

	// keep < 1 still retains the most recent snapshot
	require.NoError(t, s.Snapshots.Prune(ctx, 0))
	list, err = s.Snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[3], list[0].ID)
}
