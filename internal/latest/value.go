// Package latest implements a generic latest-value broadcast primitive:
// a single-slot channel between the capture/audio producers and the
// device runners — one writer and any number of blocking-or-polling
// readers, with no buffering of intermediate values (readers only ever
// observe the newest one). Slow readers never block the writer.
//
// Implemented as a sync.Mutex + sync.Cond guarding a value/version pair.
package latest

import (
	"context"
	"sync"
)

// Value is a single-slot, versioned broadcast cell. One goroutine calls
// Set; any number of goroutines Subscribe and then Get/TryGet.
type Value[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	value   T
	version uint64
}

// New creates a Value seeded with an initial value at version 1, so the
// first Subscribe+Get does not block.
func New[T any](initial T) *Value[T] {
	v := &Value[T]{value: initial, version: 1}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// Set publishes a new value, waking all blocked subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.value = val
	v.version++
	v.mu.Unlock()
	v.cond.Broadcast()
}

// Get returns the current value and version without blocking.
func (v *Value[T]) Get() (T, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.version
}

// Sub is a subscriber's view onto a Value: it remembers the last version
// it observed so Get can block until something newer is published.
type Sub[T any] struct {
	v       *Value[T]
	lastVer uint64
}

// Subscribe creates a subscriber starting from the Value's current version,
// so the first Get/TryGet only returns once a value newer than "now" is
// set. To see the current value immediately, read it with Value.Get or
// subscribe with SubscribeFromZero instead.
func (v *Value[T]) Subscribe() *Sub[T] {
	_, ver := v.Get()
	return &Sub[T]{v: v, lastVer: ver}
}

// SubscribeFromZero creates a subscriber that has not observed any version
// yet, so the next Get/TryGet returns immediately with the current value.
func (v *Value[T]) SubscribeFromZero() *Sub[T] {
	return &Sub[T]{v: v, lastVer: 0}
}

// Get blocks until a value newer than the last one this subscriber
// observed is available, or ctx is done.
func (s *Sub[T]) Get(ctx context.Context) (T, error) {
	s.v.mu.Lock()

	done := make(chan struct{})
	defer close(done)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.v.cond.Broadcast()
			case <-done:
			}
		}()
	}

	for s.v.version == s.lastVer {
		if ctx != nil {
			select {
			case <-ctx.Done():
				s.v.mu.Unlock()
				var zero T
				return zero, ctx.Err()
			default:
			}
		}
		s.v.cond.Wait()
	}

	val := s.v.value
	s.lastVer = s.v.version
	s.v.mu.Unlock()
	return val, nil
}

// TryGet returns the current value and true if it is newer than the last
// one this subscriber observed, without blocking.
func (s *Sub[T]) TryGet() (T, bool) {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()

	if s.v.version == s.lastVer {
		var zero T
		return zero, false
	}
	val := s.v.value
	s.lastVer = s.v.version
	return val, true
}

// Peek returns the current value regardless of whether it is new to this
// subscriber, without advancing lastVer.
func (s *Sub[T]) Peek() T {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	return s.v.value
}
