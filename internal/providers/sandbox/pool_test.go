package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecute(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2, nil)
	require.NoError(t, err)
	defer pool.Close()

	res, err := pool.Execute(context.Background(), `qortalRequest({action: "GET_USER_ACCOUNT"})`, &fakeRequester{result: "Qabc"})
	require.NoError(t, err)
	assert.Equal(t, "Qabc", res.Value)

	assert.Equal(t, Stats{Size: 2, Available: 2}, pool.Stats())
}

func TestPoolReleaseResets(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1, nil)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Execute(context.Background(), `var leaked = 1`, nil)
	require.NoError(t, err)

	res, err := pool.Execute(context.Background(), `typeof leaked`, nil)
	require.NoError(t, err)
	assert.Equal(t, "undefined", res.Value)
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1, nil)
	require.NoError(t, err)
	defer pool.Close()

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Stats().InUse)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, pool.Release(rt))
}

func TestPoolClosed(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1, nil)
	require.NoError(t, err)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = pool.Execute(context.Background(), `1`, nil)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, pool.Stats().Closed)
}
