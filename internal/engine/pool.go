package engine

import (
	"context"
	"sync"

	"github.com/drivepulse/drivepulse/internal/event"
)

// ingestWork is one raw event moving through the ingest pool. resultC is
// nil for fire-and-forget (batch) submissions.
type ingestWork struct {
	raw     event.Raw
	resultC chan ingestOutcome
}

// ingestOutcome pairs the result of one ingest with its error, if any.
type ingestOutcome struct {
	res *IngestResult
	err error
}

// ingestPool is a fixed-size goroutine pool with a bounded input queue.
// Validation and append are independent per event, so they run in parallel;
// ordering only matters once an accepted event reaches the fold queue.
type ingestPool struct {
	queue   chan *ingestWork
	process func(ctx context.Context, w *ingestWork)
	wg      sync.WaitGroup
}

func newIngestPool(ctx context.Context, n, cap int, fn func(context.Context, *ingestWork)) *ingestPool {
	p := &ingestPool{
		queue:   make(chan *ingestWork, cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *ingestPool) run(ctx context.Context) {
	for {
		select {
		case w, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, w)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues work without blocking (returns false if full).
func (p *ingestPool) Submit(w *ingestWork) bool {
	select {
	case p.queue <- w:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *ingestPool) Drain() {
	close(p.queue)
	p.wg.Wait()
}

func (p *ingestPool) QueueLen() int {
	return len(p.queue)
}

func (p *ingestPool) QueueCap() int {
	return cap(p.queue)
}
