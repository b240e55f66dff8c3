package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDir_UploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := &LocalDirBackend{}

	dir := t.TempDir()
	require.NoError(t, b.Initialize(ctx, &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: dir},
	}))
	require.NoError(t, b.Authenticate(ctx))
	assert.True(t, b.IsAuthenticated())
	assert.Equal(t, dir, b.GetUser())

	require.NoError(t, b.Upload(ctx, []byte(`{"version":2}`)))

	got, err := b.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":2}`), got)

	// upload replaces the blob entirely
	require.NoError(t, b.Upload(ctx, []byte(`{"version":3}`)))
	got, err = b.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":3}`), got)
}

func TestLocalDir_DownloadMissingBlob(t *testing.T) {
	ctx := context.Background()
	b := &LocalDirBackend{}

	require.NoError(t, b.Initialize(ctx, &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: t.TempDir()},
	}))

	got, err := b.Download(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocalDir_InitializeRequiresDir(t *testing.T) {
	b := &LocalDirBackend{}
	err := b.Initialize(context.Background(), &Config{Type: TypeLocalDir})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	err = b.Initialize(context.Background(), &Config{Type: TypeLocalDir, LocalDir: &LocalDirConfig{}})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestLocalDir_CustomFilename(t *testing.T) {
	ctx := context.Background()
	b := &LocalDirBackend{}
	dir := t.TempDir()

	require.NoError(t, b.Initialize(ctx, &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: dir, Filename: "vault.json"},
	}))
	require.NoError(t, b.Upload(ctx, []byte("x")))
	assert.Equal(t, filepath.Join(dir, "vault.json"), b.path)
}

func TestLocalDir_SignOut(t *testing.T) {
	ctx := context.Background()
	b := &LocalDirBackend{}
	require.NoError(t, b.Initialize(ctx, &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: t.TempDir()},
	}))

	b.SignOut(ctx)
	assert.False(t, b.IsAuthenticated())
	assert.ErrorIs(t, b.Upload(ctx, []byte("x")), common.ErrConfiguration)
}
