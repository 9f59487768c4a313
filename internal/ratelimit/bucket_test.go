package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_AllowsBurstUpToCapacity(t *testing.T) {
	b := New(3, 1)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Wait(ctx))
	}
}

func TestBucket_BlocksBeyondCapacityThenRefills(t *testing.T) {
	b := New(1, 10) // 1 burst, refills fast for the test
	ctx := context.Background()
	require.NoError(t, b.Wait(ctx))

	start := time.Now()
	require.NoError(t, b.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBucket_RespectsCancellation(t *testing.T) {
	b := New(0.01, 0.01)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
