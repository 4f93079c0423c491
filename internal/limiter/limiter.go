// Package limiter bounds the number of concurrently running tasks.
package limiter

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter runs submitted tasks with at most a fixed number in flight.
// Submission order is admission order: excess tasks queue on the semaphore
// and start only when a slot frees. A completing task always releases its
// slot, on success and failure alike. Capacity 1 degenerates to strict
// sequencing; capacity at or above the pending count to full parallelism.
type Limiter struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu          sync.Mutex
	err         error // first task error
	inFlight    int
	maxInFlight int
}

// New creates a Limiter with the given slot capacity. Capacity below 1 is
// raised to 1.
func New(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(capacity))}
}

// Go submits fn. It blocks until a slot is acquired (FIFO), then runs fn
// in its own goroutine. The first error returned by any task is reported
// by Wait. Go itself returns an error only when slot acquisition fails,
// which for a background context cannot happen.
func (l *Limiter) Go(ctx context.Context, fn func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	l.mu.Lock()
	l.inFlight++
	if l.inFlight > l.maxInFlight {
		l.maxInFlight = l.inFlight
	}
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer func() {
			l.mu.Lock()
			l.inFlight--
			l.mu.Unlock()
			l.sem.Release(1)
			l.wg.Done()
		}()

		if err := fn(); err != nil {
			l.mu.Lock()
			if l.err == nil {
				l.err = err
			}
			l.mu.Unlock()
		}
	}()

	return nil
}

// Wait blocks until every submitted task has finished and returns the
// first task error, if any.
func (l *Limiter) Wait() error {
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// MaxInFlight returns the highest number of tasks observed running at
// once. Intended for tests asserting the concurrency bound.
func (l *Limiter) MaxInFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxInFlight
}
