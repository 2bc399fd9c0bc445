package regioncache

import (
	"context"
	"sync"
	"testing"
)

func TestKeyLockerMutualExclusion(t *testing.T) {
	l := newKeyLocker()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				release, ok := l.acquire(ctx, "k")
				if !ok {
					t.Error("local acquire must always succeed")
					return
				}
				counter++
				release()
			}
		}()
	}
	wg.Wait()
	if counter != 1600 {
		t.Fatalf("counter = %d, want 1600", counter)
	}
}

func TestKeyLockerIndependentKeys(t *testing.T) {
	l := newKeyLocker()
	ctx := context.Background()

	releaseA, _ := l.acquire(ctx, "a")
	done := make(chan struct{})
	go func() {
		// a different key must not block behind "a"
		releaseB, _ := l.acquire(ctx, "b")
		releaseB()
		close(done)
	}()
	<-done
	releaseA()
}

func TestKeyLockerReleasesState(t *testing.T) {
	l := newKeyLocker()
	ctx := context.Background()

	release, _ := l.acquire(ctx, "k")
	release()

	l.mu.Lock()
	n := len(l.keys)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock table retained %d entries", n)
	}
}
