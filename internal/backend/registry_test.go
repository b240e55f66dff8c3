package backend

import (
	"context"
	"testing"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_KnownTypes(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{TypeS3, TypeS3},
		{TypeHTTP, TypeHTTP},
		{TypeLocalDir, TypeLocalDir},
	}
	for _, tc := range tests {
		b, err := New(&Config{Type: tc.typ})
		require.NoError(t, err)
		assert.Equal(t, tc.want, b.Type())
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(&Config{Type: "carrier-pigeon"})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = New(nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestRegistry_ActiveLifecycle(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Active())

	b, err := r.CreateAndInitialize(context.Background(), &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)
	assert.Same(t, b, r.Active())

	r.ClearActive()
	assert.Nil(t, r.Active())
}

func TestRegistry_InitializeFailureLeavesActiveUntouched(t *testing.T) {
	r := NewRegistry()

	good, err := r.CreateAndInitialize(context.Background(), &Config{
		Type:     TypeLocalDir,
		LocalDir: &LocalDirConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)

	_, err = r.CreateAndInitialize(context.Background(), &Config{Type: TypeLocalDir})
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Same(t, good, r.Active(), "failed connect must not replace the active backend")
}

func TestS3_InitializeValidation(t *testing.T) {
	b := &S3Backend{}
	ctx := context.Background()

	err := b.Initialize(ctx, &Config{Type: TypeS3})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	err = b.Initialize(ctx, &Config{Type: TypeS3, S3: &S3Config{Bucket: "b"}})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	err = b.Initialize(ctx, &Config{Type: TypeS3, S3: &S3Config{
		Region: "us-east-1", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s",
	}})
	require.NoError(t, err)
	assert.False(t, b.IsAuthenticated(), "not authenticated until credentials are verified")
	assert.Equal(t, "k@b", b.GetUser())
}
