package streams

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sr093906/photok/internal/events"
)

// CloserPool closes streams in the background. Consumers discard
// handles from latency-sensitive paths; the pool guarantees every
// scheduled handle is closed exactly once, and close failures are
// logged rather than surfaced.
type CloserPool struct {
	logger  *events.Logger
	queue   chan closeItem
	workers int

	mu      sync.Mutex
	started bool
	stopped bool

	wg       sync.WaitGroup // workers
	overflow sync.WaitGroup // spill goroutines

	closed     atomic.Int64
	failed     atomic.Int64
	overflowed atomic.Int64
}

type closeItem struct {
	name string
	c    io.Closer
}

// NewCloserPool creates a pool with the given worker count and queue
// depth.
func NewCloserPool(workers, queueSize int, logger *events.Logger) *CloserPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = events.Discard()
	}

	return &CloserPool{
		logger:  logger.WithField("component", "closer_pool"),
		queue:   make(chan closeItem, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *CloserPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *CloserPool) worker() {
	defer p.wg.Done()
	for item := range p.queue {
		p.closeNow(item)
	}
}

// Schedule hands a closer to the pool without blocking. When the
// queue is full the close runs on its own goroutine, and after Stop
// it runs inline, so the handle is released in every case.
func (p *CloserPool) Schedule(name string, c io.Closer) {
	if c == nil {
		return
	}
	item := closeItem{name: name, c: c}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.closeNow(item)
		return
	}

	select {
	case p.queue <- item:
		p.mu.Unlock()
		return
	default:
	}

	p.overflow.Add(1)
	p.mu.Unlock()

	p.overflowed.Add(1)
	go func() {
		defer p.overflow.Done()
		p.closeNow(item)
	}()
}

func (p *CloserPool) closeNow(item closeItem) {
	if err := item.c.Close(); err != nil {
		p.failed.Add(1)
		p.logger.WithField("stream", item.name).WithError(err).
			Warn("Deferred close failed")
		return
	}
	p.closed.Add(1)
}

// Stop drains the queue and waits for all pending closes, bounded by
// ctx. Schedule keeps working after Stop but closes inline.
func (p *CloserPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)

	// A pool that was never started has no workers to drain the
	// queue; flush it here.
	if !p.started {
		for item := range p.queue {
			p.closeNow(item)
		}
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		p.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports pool counters for diagnostics.
func (p *CloserPool) Stats() map[string]int64 {
	return map[string]int64{
		"closed":     p.closed.Load(),
		"failed":     p.failed.Load(),
		"overflowed": p.overflowed.Load(),
		"queued":     int64(len(p.queue)),
	}
}
