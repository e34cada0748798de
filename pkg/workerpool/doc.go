// Package workerpool runs fire-and-forget jobs on a fixed set of goroutines
// fed by a bounded queue.
//
// It is the default reload executor of the feature package: background
// refreshes of stale cache entries are submitted here so that a slow backend
// never blocks the callers that are served the stale value.
//
// # Usage
//
//	pool := workerpool.New(workerpool.Config{Workers: 4, QueueDepth: 256})
//	defer pool.Shutdown()
//
//	if err := pool.Submit(func() { refresh(key) }); err != nil {
//		// queue is full or the pool is shut down
//	}
//
// Submit never blocks. When the queue is full it returns ErrQueueFull and the
// caller decides whether to drop or retry the job. A job that panics is
// recovered and reported through the configured logger; the worker keeps
// running.
package workerpool
