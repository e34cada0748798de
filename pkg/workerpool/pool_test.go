package workerpool_test

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/featureflag/pkg/workerpool"
)

func TestPoolRunsJobs(t *testing.T) {
	prePoolOpts := goleak.IgnoreCurrent()

	p := workerpool.New(workerpool.Config{Workers: 4, QueueDepth: 100})

	var (
		counter atomic.Int64
		wg      sync.WaitGroup
	)
	wg.Add(50)
	for range 50 {
		err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int64(50), counter.Load())

	p.Shutdown()
	goleak.VerifyNone(t, prePoolOpts)
}

func TestPoolQueueFull(t *testing.T) {
	prePoolOpts := goleak.IgnoreCurrent()

	p := workerpool.New(workerpool.Config{Workers: 1, QueueDepth: 1})

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	// the only worker is busy, one slot in the queue
	require.NoError(t, p.Submit(func() {}))
	assert.Equal(t, 1, p.Len())

	err := p.Submit(func() {})
	assert.ErrorIs(t, err, workerpool.ErrQueueFull)

	close(release)
	p.Shutdown()
	assert.Equal(t, 0, p.Len())
	goleak.VerifyNone(t, prePoolOpts)
}

func TestPoolLenNeverNegative(t *testing.T) {
	prePoolOpts := goleak.IgnoreCurrent()

	p := workerpool.New(workerpool.Config{Workers: 8, QueueDepth: 4})

	done := make(chan struct{})
	var negative atomic.Bool
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				if p.Len() < 0 {
					negative.Store(true)
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 2000 {
				_ = p.Submit(func() {})
			}
		}()
	}
	wg.Wait()
	p.Shutdown()
	close(done)

	assert.False(t, negative.Load(), "Len went below zero")
	assert.Equal(t, 0, p.Len())
	goleak.VerifyNone(t, prePoolOpts)
}

func TestPoolShutdown(t *testing.T) {
	prePoolOpts := goleak.IgnoreCurrent()

	p := workerpool.New(workerpool.Config{Workers: 2, QueueDepth: 10})

	var counter atomic.Int64
	for range 10 {
		require.NoError(t, p.Submit(func() { counter.Add(1) }))
	}

	p.Shutdown()
	// queued jobs are drained before Shutdown returns
	assert.Equal(t, int64(10), counter.Load())

	assert.ErrorIs(t, p.Submit(func() {}), workerpool.ErrPoolClosed)

	// second call is a no-op
	p.Shutdown()
	goleak.VerifyNone(t, prePoolOpts)
}

func TestPoolRejectsNilJob(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 1, QueueDepth: 1})
	defer p.Shutdown()

	assert.ErrorIs(t, p.Submit(nil), workerpool.ErrNilJob)
}

func TestPoolRecoversPanics(t *testing.T) {
	prePoolOpts := goleak.IgnoreCurrent()

	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))
	p := workerpool.New(workerpool.Config{Workers: 1, QueueDepth: 2}, workerpool.WithLogger(log))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { close(done) }))
	<-done

	p.Shutdown()
	assert.Contains(t, buf.String(), "boom")
	goleak.VerifyNone(t, prePoolOpts)
}

func TestPoolDefaults(t *testing.T) {
	p := workerpool.New(workerpool.Config{})
	defer p.Shutdown()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))
	<-done
}
