package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldExecute_ClaimsOnce(t *testing.T) {
	ctx := context.Background()
	pm := NewProgressManager(NewMemStatusStore())

	ok, err := pm.ShouldExecute(ctx, "op-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二次认领时已是 Pending
	ok, err = pm.ShouldExecute(ctx, "op-1")
	require.NoError(t, err)
	assert.False(t, ok)

	status, err := pm.Status(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, OpPending, status)
}

func TestMarkStatus(t *testing.T) {
	ctx := context.Background()
	pm := NewProgressManager(NewMemStatusStore())

	_, err := pm.ShouldExecute(ctx, "op-2")
	require.NoError(t, err)
	require.NoError(t, pm.MarkStatus(ctx, "op-2", OpRejected))

	status, err := pm.Status(ctx, "op-2")
	require.NoError(t, err)
	assert.Equal(t, OpRejected, status)
	assert.True(t, status.Done())

	ok, err := pm.ShouldExecute(ctx, "op-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Pending 不覆盖终态
	require.NoError(t, pm.MarkStatus(ctx, "op-2", OpPending))
	status, _ = pm.Status(ctx, "op-2")
	assert.Equal(t, OpRejected, status)
}

func TestMemStatusStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemStatusStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	claimed, err := store.Claim(ctx, "op-3", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	now = now.Add(2 * time.Minute)
	status, err := store.GetStatus(ctx, "op-3")
	require.NoError(t, err)
	assert.Equal(t, OpUnknown, status, "Pending 过期后可重新认领")

	claimed, err = store.Claim(ctx, "op-3", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

type failingStore struct{ MemStatusStore }

func (*failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis unavailable")
}

func TestShouldExecute_StoreError(t *testing.T) {
	pm := NewProgressManager(&failingStore{})
	ok, err := pm.ShouldExecute(context.Background(), "op-4")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestOpStatusString(t *testing.T) {
	assert.Equal(t, "committed", OpCommitted.String())
	assert.Equal(t, "unknown", OpStatus(9).String())
	assert.False(t, OpPending.Done())
}
