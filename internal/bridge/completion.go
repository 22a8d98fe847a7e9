package bridge

import (
	"context"
	"sync"
)

// completion is a one-shot future released when the browser posts a result,
// or force-rejected when the session closes. Resolve and reject are
// idempotent; whichever settles first wins and later attempts are silent
// no-ops.
type completion struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newCompletion() *completion {
	return &completion{done: make(chan struct{})}
}

// resolve settles the completion with a value. Never blocks.
func (c *completion) resolve(value any) {
	c.once.Do(func() {
		c.value = value
		close(c.done)
	})
}

// reject settles the completion with an error. Never blocks.
func (c *completion) reject(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// await blocks until the completion settles or ctx is canceled.
func (c *completion) await(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
