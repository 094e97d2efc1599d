package game

import (
	"context"
	"sync"
	"time"
)

// batch is a group of events delivered together after an optional delay.
type batch struct {
	delay  time.Duration
	events []dispatch
}

// pacer delivers event batches in order on its own goroutine, sleeping before
// delayed batches. It never touches game state, so no game lock is held while it waits.
type pacer struct {
	mu      sync.Mutex
	queue   []batch
	wake    chan struct{}
	deliver func(dispatch)
	done    chan struct{}
}

func newPacer(deliver func(dispatch)) *pacer {
	return &pacer{
		wake:    make(chan struct{}, 1),
		deliver: deliver,
		done:    make(chan struct{}),
	}
}

// enqueue never blocks.
func (p *pacer) enqueue(b ...batch) {
	p.mu.Lock()
	p.queue = append(p.queue, b...)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *pacer) pop() (batch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return batch{}, false
	}
	b := p.queue[0]
	p.queue = p.queue[1:]
	return b, true
}

// run delivers batches until ctx is cancelled. Undelivered batches are dropped.
func (p *pacer) run(ctx context.Context) {
	defer close(p.done)
	for {
		b, ok := p.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}
		if b.delay > 0 {
			t := time.NewTimer(b.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		for _, d := range b.events {
			p.deliver(d)
		}
	}
}
