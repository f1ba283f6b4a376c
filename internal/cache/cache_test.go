package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryServesCachedValueWithinTTL(t *testing.T) {
	now := time.Now()
	c := NewMemory[int](time.Minute, func() time.Time { return now })

	var computes atomic.Int32
	compute := func(ctx context.Context) (int, error) {
		computes.Add(1)
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute(context.Background(), "k", compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 42 {
			t.Fatalf("value = %d, want 42", v)
		}
	}

	if computes.Load() != 1 {
		t.Fatalf("compute ran %d times, want 1", computes.Load())
	}
}

func TestMemoryRecomputesAfterExpiry(t *testing.T) {
	now := time.Now()
	c := NewMemory[int](time.Minute, func() time.Time { return now })

	var computes atomic.Int32
	compute := func(ctx context.Context) (int, error) {
		return int(computes.Add(1)), nil
	}

	first, _ := c.GetOrCompute(context.Background(), "k", compute)
	now = now.Add(2 * time.Minute)
	second, _ := c.GetOrCompute(context.Background(), "k", compute)

	if first != 1 || second != 2 {
		t.Fatalf("values = %d, %d; want 1, 2", first, second)
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	c := NewMemory[string](time.Minute, nil)

	a, _ := c.GetOrCompute(context.Background(), "a", func(ctx context.Context) (string, error) { return "A", nil })
	b, _ := c.GetOrCompute(context.Background(), "b", func(ctx context.Context) (string, error) { return "B", nil })

	if a != "A" || b != "B" {
		t.Fatalf("values = %s, %s; want A, B", a, b)
	}
}

func TestMemoryDoesNotCacheFailures(t *testing.T) {
	c := NewMemory[int](time.Minute, nil)

	boom := errors.New("boom")
	_, err := c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	v, err := c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("retry after failure = %d, %v; want 7, nil", v, err)
	}
}

func TestMemoryDeduplicatesConcurrentComputes(t *testing.T) {
	c := NewMemory[int](time.Minute, nil)

	var computes atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	compute := func(ctx context.Context) (int, error) {
		computes.Add(1)
		close(started)
		<-release
		return 99, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.GetOrCompute(context.Background(), "k", compute)
	}()

	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		// This caller must wait on the in-flight computation, not start
		// a second one.
		results[1], _ = c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (int, error) {
			computes.Add(1)
			return -1, nil
		})
	}()

	// Give the second goroutine a moment to reach the wait path.
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if computes.Load() != 1 {
		t.Fatalf("compute ran %d times, want 1", computes.Load())
	}
	if results[0] != 99 || results[1] != 99 {
		t.Fatalf("results = %v, want [99 99]", results)
	}
}

func TestMemoryWaiterHonorsContext(t *testing.T) {
	c := NewMemory[int](time.Minute, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()

	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.GetOrCompute(ctx, "k", func(ctx context.Context) (int, error) { return 2, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestMemoryPurgeDropsExpiredEntries(t *testing.T) {
	now := time.Now()
	c := NewMemory[int](time.Minute, func() time.Time { return now })

	_, _ = c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (int, error) { return 1, nil })

	now = now.Add(2 * time.Minute)
	c.Purge()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) != 0 {
		t.Fatalf("entries = %d, want 0 after purge", len(c.entries))
	}
}
