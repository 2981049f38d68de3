package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsTaskError(t *testing.T) {
	p := NewPool(2)
	defer p.Shutdown()

	boom := errors.New("boom")
	err := p.Run(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, p.Run(context.Background(), func() error { return nil }))
}

func TestRunRecoversPanic(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	err := p.Run(context.Background(), func() error { panic("generation failed") })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskPanic)
	assert.Contains(t, err.Error(), "generation failed")
}

func TestRunHonoursContext(t *testing.T) {
	p := NewPool(1)
	defer p.Shutdown()

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Run(ctx, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestConcurrencyIsBounded(t *testing.T) {
	const workers = 2
	p := NewPool(workers)
	defer p.Shutdown()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(context.Background(), func() error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.Equal(t, workers, p.Workers())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := NewPool(1)
	p.Shutdown()
	p.Shutdown()

	err := p.Run(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}
