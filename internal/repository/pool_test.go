package repository

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolReset_CoalescesConcurrentTriggers(t *testing.T) {
	var resets atomic.Int64

	p := &Pool{}
	p.reset = func() {
		resets.Add(1)
		// Имитируем небыстрое пересоздание, чтобы конкуренты успели
		// добежать до Reset, пока первый ещё держит блокировку.
		time.Sleep(10 * time.Millisecond)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Reset()
		}()
	}
	wg.Wait()

	if got := resets.Load(); got != 1 {
		t.Fatalf("resets = %d, want 1", got)
	}
}

func TestPoolReset_AllowsResetAfterInterval(t *testing.T) {
	var resets atomic.Int64

	p := &Pool{}
	p.reset = func() { resets.Add(1) }

	p.Reset()

	// Сбой в пределах окна игнорируется.
	p.Reset()
	if got := resets.Load(); got != 1 {
		t.Fatalf("resets after immediate retrigger = %d, want 1", got)
	}

	// После окна пересоздание разрешено снова.
	p.mu.Lock()
	p.lastReset = time.Now().Add(-2 * resetMinInterval)
	p.mu.Unlock()

	p.Reset()
	if got := resets.Load(); got != 2 {
		t.Fatalf("resets after interval = %d, want 2", got)
	}
}
