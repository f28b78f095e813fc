package cmn_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

func TestSemaphoreBoundsConcurrency(t *testing.T) {
	const capacity = 3
	sem := cmn.NewSemaphore(capacity)

	var current, maxObserved int32
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		go func() {
			sem.Acquire()
			n := atomic.AddInt32(&current, 1)
			for {
				m := atomic.LoadInt32(&maxObserved)
				if n <= m || atomic.CompareAndSwapInt32(&maxObserved, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			sem.Release()
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := atomic.LoadInt32(&maxObserved); got > capacity {
		t.Fatalf("observed %d concurrent holders, want <= %d", got, capacity)
	}
}

func TestSemaphoreZeroCapacityTreatedAsOne(t *testing.T) {
	sem := cmn.NewSemaphore(0)
	if sem.Capacity() != 1 {
		t.Fatalf("got capacity %d, want 1", sem.Capacity())
	}
}
