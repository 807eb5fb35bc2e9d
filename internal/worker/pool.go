package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Task func(ctx context.Context) error

type Result struct {
	Index int
	Err   error
}

// Pool runs submitted tasks on a fixed number of goroutines. An optional
// limiter spaces task starts across all workers.
type Pool struct {
	workers int
	tasks   chan indexedTask
	limiter *rate.Limiter
	wg      sync.WaitGroup

	mu        sync.Mutex
	submitted int
	closed    bool
}

type indexedTask struct {
	index int
	run   Task
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan indexedTask, buffer),
	}
}

// SetRateLimit allows perSecond task starts with a burst of one. Zero or
// negative disables limiting. It must be called before Run.
func (p *Pool) SetRateLimit(perSecond float64) {
	if p == nil {
		return
	}
	if perSecond <= 0 {
		p.limiter = nil
		return
	}
	p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Submit enqueues t and returns its index. Submitting after Close is a no-op
// returning -1.
func (p *Pool) Submit(t Task) int {
	if p == nil || t == nil {
		return -1
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return -1
	}
	idx := p.submitted
	p.submitted++
	p.mu.Unlock()

	p.tasks <- indexedTask{index: idx, run: t}
	return idx
}

func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Run starts the workers. The returned channel yields one Result per task and
// is closed once the pool is closed and drained, or ctx is done.
func (p *Pool) Run(ctx context.Context) <-chan Result {
	buf := p.workers * 64
	out := make(chan Result, buf)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if p.limiter != nil {
						if err := p.limiter.Wait(ctx); err != nil {
							return
						}
					}
					err := t.run(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Index: t.index, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}

// RunAll executes tasks and returns their results ordered by index.
func RunAll(ctx context.Context, workers int, perSecond float64, tasks []Task) []Result {
	p := NewPool(workers, len(tasks))
	p.SetRateLimit(perSecond)
	results := p.Run(ctx)

	for _, t := range tasks {
		p.Submit(t)
	}
	p.Close()

	out := make([]Result, len(tasks))
	for i := range out {
		out[i] = Result{Index: i, Err: context.Canceled}
	}
	for r := range results {
		out[r.Index] = r
	}
	if err := ctx.Err(); err != nil {
		for i := range out {
			if out[i].Err == context.Canceled {
				out[i].Err = err
			}
		}
	}
	return out
}
