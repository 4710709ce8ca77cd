// Package limiter caps concurrent executions of expensive operations, such
// as thumbnail rendering, so a burst of shell requests cannot exhaust memory.
package limiter

import "context"

// Semaphore is a counting semaphore with context-aware acquisition.
type Semaphore struct {
	slots chan struct{}
}

// New creates a semaphore with n slots. n <= 0 is treated as 1.
func New(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire grabs a slot without blocking.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot. Must pair with a successful acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// InUse reports how many slots are currently held.
func (s *Semaphore) InUse() int { return len(s.slots) }
