package memory

import (
	"context"
	"testing"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)
}

func TestGet_Missing(t *testing.T) {
	store := New()

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTTL_Lapse(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSet_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Set(ctx, "k", []byte("old"), 0))
	require.NoError(t, store.Set(ctx, "k", []byte("new"), 0))

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), val)
}
