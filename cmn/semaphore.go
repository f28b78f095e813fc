package cmn

// Semaphore is a fixed-capacity counting semaphore used to bound
// per-category concurrency in the scan pipeline (config key
// cache.batch.{client,libraries,mods,natives,assets}).
//
// This variant never resizes after construction: a scan batch size never
// changes mid-run, so the extra condvar bookkeeping for resizing buys
// nothing here.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore returns a Semaphore with the given capacity. A capacity
// of zero or less is treated as 1 so callers can't accidentally create a
// permanently-blocked semaphore.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() { s.slots <- struct{}{} }

// Release returns a permit to the pool.
func (s *Semaphore) Release() { <-s.slots }

// Capacity reports the configured capacity.
func (s *Semaphore) Capacity() int { return cap(s.slots) }
