package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore()
	s.store.now = func() time.Time { return s.now }
}

func (s *InMemoryBucketStoreSuite) TestAllowWithinLimit() {
	ctx := context.Background()
	for i := range 3 {
		res, err := s.store.Allow(ctx, "k", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(ctx, "k", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(60, res.RetryAfter)
	s.Equal(s.now.Add(time.Minute), res.ResetAt)
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	ctx := context.Background()
	_, _ = s.store.Allow(ctx, "k", 2, time.Minute)
	s.now = s.now.Add(30 * time.Second)
	_, _ = s.store.Allow(ctx, "k", 2, time.Minute)

	res, _ := s.store.Allow(ctx, "k", 2, time.Minute)
	s.False(res.Allowed)
	s.Equal(30, res.RetryAfter)

	s.now = s.now.Add(31 * time.Second)
	res, _ = s.store.Allow(ctx, "k", 2, time.Minute)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestKeysAreIndependent() {
	ctx := context.Background()
	res, _ := s.store.Allow(ctx, "a", 1, time.Minute)
	s.True(res.Allowed)
	res, _ = s.store.Allow(ctx, "b", 1, time.Minute)
	s.True(res.Allowed)
	res, _ = s.store.Allow(ctx, "a", 1, time.Minute)
	s.False(res.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	ctx := context.Background()
	_, _ = s.store.Allow(ctx, "k", 1, time.Minute)
	s.Require().NoError(s.store.Reset(ctx, "k"))

	res, _ := s.store.Allow(ctx, "k", 1, time.Minute)
	s.True(res.Allowed)
}

func TestInMemoryBucketStoreConcurrent(t *testing.T) {
	store := NewInMemoryBucketStore()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Allow(context.Background(), "k", 20, time.Minute)
			assert.NoError(t, err)
			if res != nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 20, allowed)
}
