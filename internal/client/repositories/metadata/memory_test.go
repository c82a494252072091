package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Basics(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	v, err := r.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "cookie.a", []byte("1")))
	require.NoError(t, r.Set(ctx, "access", []byte("A")))

	m, err := r.List(ctx, "cookie.")
	require.NoError(t, err)
	assert.Len(t, m, 1)

	require.NoError(t, r.DeletePrefix(ctx, "cookie."))
	require.NoError(t, r.Delete(ctx, "missing"))
	m, err = r.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"access": []byte("A")}, m)
}

func TestMemoryRepository_InTx(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "access", []byte("old")))

	err := r.InTx(ctx, func(ctx context.Context, tx Repository) error {
		_ = tx.Set(ctx, "access", []byte("new"))
		return errors.New("abort")
	})
	require.Error(t, err)
	v, _ := r.Get(ctx, "access")
	assert.Equal(t, []byte("old"), v)

	require.NoError(t, r.InTx(ctx, func(ctx context.Context, tx Repository) error {
		return tx.Set(ctx, "access", []byte("new"))
	}))
	v, _ = r.Get(ctx, "access")
	assert.Equal(t, []byte("new"), v)
}
