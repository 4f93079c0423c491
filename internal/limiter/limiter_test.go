package limiter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiter_BoundHolds(t *testing.T) {
	for _, capacity := range []int{1, 2, 4, 8} {
		lim := New(capacity)
		ctx := context.Background()

		for i := 0; i < 40; i++ {
			if err := lim.Go(ctx, func() error {
				time.Sleep(time.Millisecond)
				return nil
			}); err != nil {
				t.Fatalf("capacity %d: Go failed: %v", capacity, err)
			}
		}
		if err := lim.Wait(); err != nil {
			t.Fatalf("capacity %d: Wait failed: %v", capacity, err)
		}
		if got := lim.MaxInFlight(); got > capacity {
			t.Errorf("capacity %d: observed %d tasks in flight", capacity, got)
		}
	}
}

func TestLimiter_SequentialWhenCapacityOne(t *testing.T) {
	lim := New(1)
	ctx := context.Background()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		if err := lim.Go(ctx, func() error {
			order = append(order, i) // safe: capacity 1 means no overlap
			return nil
		}); err != nil {
			t.Fatalf("Go failed: %v", err)
		}
	}
	if err := lim.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("tasks ran out of submission order: %v", order)
		}
	}
}

func TestLimiter_FailureReleasesSlot(t *testing.T) {
	lim := New(2)
	ctx := context.Background()
	sentinel := errors.New("task failed")

	var completed atomic.Int64
	for i := 0; i < 20; i++ {
		i := i
		err := lim.Go(ctx, func() error {
			completed.Add(1)
			if i%3 == 0 {
				return sentinel
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Go failed: %v", err)
		}
	}

	// Queued tasks must still run after earlier failures.
	if err := lim.Wait(); !errors.Is(err, sentinel) {
		t.Errorf("expected first task error, got %v", err)
	}
	if completed.Load() != 20 {
		t.Errorf("expected all 20 tasks to run, got %d", completed.Load())
	}
}

func TestLimiter_ZeroCapacityRaisedToOne(t *testing.T) {
	lim := New(0)
	if err := lim.Go(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	if err := lim.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if lim.MaxInFlight() != 1 {
		t.Errorf("expected exactly one task in flight, got %d", lim.MaxInFlight())
	}
}
