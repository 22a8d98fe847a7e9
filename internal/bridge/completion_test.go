package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletionResolveOnce(t *testing.T) {
	t.Parallel()

	c := newCompletion()
	c.resolve("first")
	c.resolve("second")
	c.reject(errors.New("too late"))

	value, err := c.await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "first", value)
}

func TestCompletionRejectWins(t *testing.T) {
	t.Parallel()

	c := newCompletion()
	boom := errors.New("boom")
	c.reject(boom)
	c.resolve("ignored")

	value, err := c.await(context.Background())
	require.ErrorIs(t, err, boom)
	require.Nil(t, value)
}

func TestCompletionAwaitBlocksUntilSettled(t *testing.T) {
	t.Parallel()

	c := newCompletion()
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.resolve(42)
	}()

	value, err := c.await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, value)
}

func TestCompletionAwaitHonorsContext(t *testing.T) {
	t.Parallel()

	c := newCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompletionConcurrentSettleIsSafe(t *testing.T) {
	t.Parallel()

	c := newCompletion()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				c.resolve(n)
			} else {
				c.reject(errors.New("race"))
			}
		}(i)
	}
	wg.Wait()

	// Exactly one of the settle attempts won; await must not hang.
	_, _ = c.await(context.Background())
}
