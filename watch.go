package wisp

import (
	"context"
	"sync"
)

// Watch holds a single value and notifies subscribers when it changes.
// Sending a value equal to the current one is not a change. It is safe for
// concurrent use.
type Watch[T comparable] struct {
	mu      sync.Mutex
	value   T
	version uint64
	changed chan struct{}
}

// WatchReceiver tracks which version of a Watch its owner has seen. Each
// consumer subscribes for its own receiver; marking a value seen on one
// receiver does not affect another.
type WatchReceiver[T comparable] struct {
	w    *Watch[T]
	mu   sync.Mutex
	seen uint64
}

// NewWatch returns a watch holding initial. The initial value does not count
// as a change.
func NewWatch[T comparable](initial T) *Watch[T] {
	return &Watch[T]{value: initial, changed: make(chan struct{})}
}

// Send stores v and reports whether it differed from the previous value.
func (w *Watch[T]) Send(v T) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v == w.value {
		return false
	}
	w.value = v
	w.version++
	close(w.changed)
	w.changed = make(chan struct{})
	return true
}

// Get returns the current value.
func (w *Watch[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Subscribe returns a receiver that has seen the current value.
func (w *Watch[T]) Subscribe() *WatchReceiver[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &WatchReceiver[T]{w: w, seen: w.version}
}

// Get returns the current value without marking it seen.
func (r *WatchReceiver[T]) Get() T { return r.w.Get() }

// Changed returns the current value and whether it changed since the last
// call to Changed or Wait on this receiver. The value is marked seen.
func (r *WatchReceiver[T]) Changed() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	changed := r.w.version != r.seen
	r.seen = r.w.version
	return r.w.value, changed
}

// Wait blocks until the value changes from the version this receiver last
// saw or ctx is done, then marks the new value seen.
func (r *WatchReceiver[T]) Wait(ctx context.Context) (T, error) {
	for {
		r.mu.Lock()
		r.w.mu.Lock()
		if r.w.version != r.seen {
			r.seen = r.w.version
			v := r.w.value
			r.w.mu.Unlock()
			r.mu.Unlock()
			return v, nil
		}
		ch := r.w.changed
		r.w.mu.Unlock()
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ch:
		}
	}
}
