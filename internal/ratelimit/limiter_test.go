package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewRateLimiterStartsFull verifies the bucket starts at full capacity.
func TestNewRateLimiterStartsFull(t *testing.T) {
	rl := NewRateLimiter(1.0, 10)
	if tokens := rl.GetCurrentTokens(); tokens < 9.9 {
		t.Errorf("expected ~10 tokens, got %.2f", tokens)
	}
}

// TestTryAcquireConsumesToken verifies token consumption.
func TestTryAcquireConsumesToken(t *testing.T) {
	rl := NewRateLimiter(1.0, 5)

	for i := 0; i < 5; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("TryAcquire() failed on attempt %d", i+1)
		}
	}

	if rl.TryAcquire() {
		t.Error("TryAcquire() should fail when bucket is empty")
	}
}

// TestTokenRefill verifies tokens refill over time.
func TestTokenRefill(t *testing.T) {
	rl := NewRateLimiter(10.0, 10)
	for i := 0; i < 10; i++ {
		rl.TryAcquire()
	}

	time.Sleep(200 * time.Millisecond)

	tokens := rl.GetCurrentTokens()
	if tokens < 1.5 || tokens > 3.0 {
		t.Errorf("expected ~2 tokens after 200ms at 10/sec, got %.2f", tokens)
	}
}

// TestWaitBlocksUntilTokenAvailable verifies Wait blocks and then succeeds.
func TestWaitBlocksUntilTokenAvailable(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)
	rl.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}
	elapsed := time.Since(start)

	// ~100ms (1 token / 10 tokens/sec)
	if elapsed < 50*time.Millisecond || elapsed > 300*time.Millisecond {
		t.Errorf("Wait() took %v, expected ~100ms", elapsed)
	}
}

// TestWaitRespectsContextDeadline verifies Wait gives up when the deadline
// is shorter than the refill interval.
func TestWaitRespectsContextDeadline(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	rl.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait() should return error when the deadline cannot be met")
	}
}

// TestDrainEmptiesBucket verifies Drain leaves less than one token.
func TestDrainEmptiesBucket(t *testing.T) {
	rl := NewRateLimiter(1.0, 100)

	rl.Drain()

	if tokens := rl.GetCurrentTokens(); tokens >= 1.0 {
		t.Errorf("expected <1 token after Drain, got %.2f", tokens)
	}
	if rl.TryAcquire() {
		t.Error("TryAcquire() should fail right after Drain")
	}
}

// TestUnlimited verifies a non-positive rate never blocks.
func TestUnlimited(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	for i := 0; i < 1000; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("unlimited limiter refused token %d", i+1)
		}
	}
}

// TestConcurrentWait verifies concurrent callers all eventually get a token.
func TestConcurrentWait(t *testing.T) {
	rl := NewRateLimiter(200.0, 5)

	var wg sync.WaitGroup
	var acquired atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(context.Background()); err == nil {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := acquired.Load(); got != 20 {
		t.Errorf("acquired = %d, want 20", got)
	}
}
