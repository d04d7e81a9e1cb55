package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledPublisher blocks until the delivery context ends.
type stalledPublisher struct {
	mu       sync.Mutex
	attempts int
	release  chan struct{}
}

func (p *stalledPublisher) Publish(ctx context.Context, _ Event) error {
	p.mu.Lock()
	p.attempts++
	p.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return nil
	}
}

func (p *stalledPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsync(t *testing.T) {
	t.Run("delivers in order and flushes", func(t *testing.T) {
		mem := NewMemory(0)
		a := NewAsync(mem, WithAsyncLogger(quietLogger()))
		defer a.Close()

		for _, id := range []string{"1", "2", "3"} {
			require.NoError(t, a.Publish(context.Background(), Event{ID: id, CitizenID: "c1"}))
		}
		a.Flush()

		got := mem.Events()
		require.Len(t, got, 3)
		assert.Equal(t, []string{"1", "2", "3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("does not block the caller on a stalled publisher", func(t *testing.T) {
		stalled := &stalledPublisher{release: make(chan struct{})}
		a := NewAsync(stalled, WithAsyncLogger(quietLogger()), WithPublishTimeout(50*time.Millisecond))
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		require.NoError(t, a.Publish(ctx, Event{ID: "1"}))
		require.NoError(t, a.Publish(ctx, Event{ID: "2"}))
		assert.Less(t, time.Since(start), 20*time.Millisecond)

		a.Flush()
		assert.Equal(t, 2, stalled.count())
	})

	t.Run("caller cancellation does not cancel delivery", func(t *testing.T) {
		stalled := &stalledPublisher{release: make(chan struct{})}
		a := NewAsync(stalled, WithAsyncLogger(quietLogger()), WithPublishTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, a.Publish(ctx, Event{ID: "1"}))
		cancel()
		close(stalled.release)
		a.Close()
		assert.Equal(t, 1, stalled.count())
	})

	t.Run("drops events when the buffer is full", func(t *testing.T) {
		stalled := &stalledPublisher{release: make(chan struct{})}
		a := NewAsync(stalled, WithAsyncLogger(quietLogger()), WithBuffer(1), WithPublishTimeout(time.Second))
		defer func() {
			close(stalled.release)
			a.Close()
		}()

		require.NoError(t, a.Publish(context.Background(), Event{ID: "1"}))
		require.Eventually(t, func() bool { return stalled.count() == 1 }, time.Second, 5*time.Millisecond)
		require.NoError(t, a.Publish(context.Background(), Event{ID: "2"}))
		err := a.Publish(context.Background(), Event{ID: "3"})
		assert.True(t, errors.Is(err, ErrBufferFull))
	})

	t.Run("rejects events after close", func(t *testing.T) {
		a := NewAsync(NewMemory(0), WithAsyncLogger(quietLogger()))
		a.Close()
		assert.ErrorIs(t, a.Publish(context.Background(), Event{ID: "1"}), ErrClosed)
		a.Close()
	})
}
