//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/ratelimit/store/bucket"
	"outreach/pkg/testutil/containers"
)

func TestRedisBucketStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := bucket.NewRedisBucketStore(rc.Client)

	for i := range 3 {
		res, err := store.Allow(ctx, "ratelimit:public:203.0.113.9", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := store.Allow(ctx, "ratelimit:public:203.0.113.9", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	require.NoError(t, store.Reset(ctx, "ratelimit:public:203.0.113.9"))
	res, err = store.Allow(ctx, "ratelimit:public:203.0.113.9", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
