package workerpool

import "errors"

var (
	ErrQueueFull  = errors.New("workerpool: job queue is full")
	ErrPoolClosed = errors.New("workerpool: pool is shut down")
	ErrNilJob     = errors.New("workerpool: nil job")
)
