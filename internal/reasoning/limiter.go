package reasoning

import "context"

// defaultMaxConcurrent bounds in-flight provider calls when the
// operator does not set a limit.
const defaultMaxConcurrent = 4

// Limiter is a counting semaphore shared by every run. It is the
// single admission-control point in front of the provider: analyst
// fan-out from any number of concurrent runs contends here.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter with n slots. Non-positive n falls back
// to the default.
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = defaultMaxConcurrent
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must follow a successful Acquire.
func (l *Limiter) Release() {
	<-l.slots
}

// InFlight reports how many slots are currently held.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
