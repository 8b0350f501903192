// Package debounce coalesces bursts of values into a single trailing-edge
// emission: only the most recent value is delivered, after the input has
// been quiet for the configured duration.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the last value of a burst to fn once the input has
// been idle for d. Intermediate values are never emitted.
type Debouncer[T any] struct {
	d  time.Duration
	fn func(T)

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// New builds a debouncer. fn runs on a timer goroutine; it must not call
// back into Set from the same goroutine while holding caller locks that
// Set's callers hold.
func New[T any](d time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{d: d, fn: fn}
}

// Set supplies a new value, cancelling any pending emission.
func (b *Debouncer[T]) Set(v T) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.d, func() {
		b.mu.Lock()
		// A later Set (or Stop) supersedes this emission even if the
		// timer had already fired before Stop could catch it.
		if gen != b.gen {
			b.mu.Unlock()
			return
		}
		b.timer = nil
		b.mu.Unlock()
		b.fn(v)
	})
	b.mu.Unlock()
}

// Stop cancels any pending emission. The debouncer stays usable.
func (b *Debouncer[T]) Stop() {
	b.mu.Lock()
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
}
