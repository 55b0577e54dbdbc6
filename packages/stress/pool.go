package stress

import (
	"context"
	"sync"
)

// WorkFunc is the body of one worker. It runs on its own goroutine and
// returns when ctx is done or it has no more work.
type WorkFunc func(ctx context.Context, id int)

type worker struct {
	id     int
	cancel context.CancelFunc
}

// Pool manages a resizable set of workers
type Pool struct {
	work    WorkFunc
	metrics *Metrics

	mu      sync.Mutex
	workers []*worker
	nextID  int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewPool creates a pool that runs work on every worker. metrics may be nil.
func NewPool(metrics *Metrics, work WorkFunc) *Pool {
	return &Pool{
		work:    work,
		metrics: metrics,
	}
}

// Start starts n workers, at least one
func (p *Pool) Start(ctx context.Context, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctx, p.cancel = context.WithCancel(ctx)
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.addLocked()
	}
}

// Scale adjusts the number of running workers. Removed workers finish the
// request they are on before exiting.
func (p *Pool) Scale(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil || p.ctx.Err() != nil {
		return
	}

	for len(p.workers) < n {
		p.addLocked()
	}
	for len(p.workers) > n && len(p.workers) > 0 {
		last := len(p.workers) - 1
		p.workers[last].cancel()
		p.workers = p.workers[:last]
	}
}

func (p *Pool) addLocked() {
	ctx, cancel := context.WithCancel(p.ctx)
	w := &worker{id: p.nextID, cancel: cancel}
	p.nextID++
	p.workers = append(p.workers, w)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()

		if p.metrics != nil {
			p.metrics.IncrementActiveWorkers()
			defer p.metrics.DecrementActiveWorkers()
		}

		p.work(ctx, w.id)
	}()
}

// Stop signals every worker to exit
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.workers = nil
}

// Wait blocks until every worker has returned
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Count returns the number of workers the pool is currently sized to
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}
