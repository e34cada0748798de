package workerpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool is a fixed-size goroutine pool. It is safe for concurrent use.
type Pool struct {
	cfg    Config
	logger *slog.Logger
	queue  chan func()
	wg     sync.WaitGroup

	// mu guards closed and the close of queue against concurrent Submit.
	mu     sync.RWMutex
	closed bool

	size atomic.Int64
}

// New starts cfg.Workers goroutines. Non-positive values fall back to
// GOMAXPROCS workers and a queue depth of 256.
func New(cfg Config, opts ...Option) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:    cfg,
		logger: slog.Default(),
		queue:  make(chan func(), cfg.QueueDepth),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go p.worker()
	}
	return p
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job func()) error {
	if job == nil {
		return ErrNilJob
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	// Counted before the send so a worker's decrement never runs first.
	p.size.Add(1)
	select {
	case p.queue <- job:
		return nil
	default:
		p.size.Add(-1)
		return ErrQueueFull
	}
}

// Len reports the number of queued jobs that have not been picked up yet.
func (p *Pool) Len() int {
	return int(p.size.Load())
}

// Shutdown stops accepting jobs, runs everything already queued and waits for
// the workers to exit. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.size.Add(-1)
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("workerpool: job panicked", slog.Any("error", fmt.Errorf("%v", r)))
		}
	}()
	job()
}
