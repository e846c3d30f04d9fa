package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocal_SerializesSameAccount(t *testing.T) {
	l := NewLocal()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), 7)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most one holder, saw %d", maxInside)
	}
	if len(l.locks) != 0 {
		t.Errorf("expected lock table to be empty, got %d entries", len(l.locks))
	}
}

func TestLocal_DifferentAccountsDoNotBlock(t *testing.T) {
	l := NewLocal()

	unlockA, err := l.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("expected second account to lock, got %v", err)
	}
	unlockB()
}

func TestLocal_ContextCancelledWhileWaiting(t *testing.T) {
	l := NewLocal()

	unlock, _ := l.Lock(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op

	again, err := l.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected lock to be free, got %v", err)
	}
	again()
}
