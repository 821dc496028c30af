// Package events provides the observer plumbing shared by providers and
// merged entities. A Feed holds callbacks for one event type, a Subscription
// detaches one callback, and a Scope owns every subscription taken by one
// entity so that disposal tears them down in a single call.
package events

import (
	"sync"
)

// Subscription detaches a registered callback.
type Subscription interface {
	// Unsubscribe removes the callback. Calling it more than once is a no-op.
	Unsubscribe()
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func()

// Unsubscribe implements Subscription.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Nop is a subscription that does nothing.
var Nop Subscription = SubscriptionFunc(nil)

// handler pairs a callback with its registration id.
type handler[E any] struct {
	id uint64
	fn func(E)
}

// Feed is a set of callbacks for events of type E. Emit calls them
// synchronously, in registration order, on the caller's goroutine.
// The zero value is ready to use.
type Feed[E any] struct {
	mu       sync.RWMutex
	next     uint64
	handlers []handler[E]
}

// Subscribe registers fn and returns the subscription that removes it.
func (f *Feed[E]) Subscribe(fn func(E)) Subscription {
	if fn == nil {
		return Nop
	}

	f.mu.Lock()
	f.next++
	id := f.next
	f.handlers = append(f.handlers, handler[E]{id: id, fn: fn})
	f.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { f.remove(id) })
	})
}

// remove drops the handler registered under id.
func (f *Feed[E]) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, h := range f.handlers {
		if h.id == id {
			f.handlers = append(f.handlers[:i:i], f.handlers[i+1:]...)
			return
		}
	}
}

// Emit delivers event to every registered callback. Callbacks registered
// or removed during delivery take effect on the next Emit.
func (f *Feed[E]) Emit(event E) {
	f.mu.RLock()
	handlers := make([]handler[E], len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.RUnlock()

	for _, h := range handlers {
		h.fn(event)
	}
}

// Len returns the number of registered callbacks.
func (f *Feed[E]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.handlers)
}

// Clear removes every callback.
func (f *Feed[E]) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = nil
}

// Scope owns a group of subscriptions. Close releases all of them; after
// Close, Add releases new subscriptions immediately. The zero value is
// ready to use.
type Scope struct {
	mu     sync.Mutex
	subs   []Subscription
	closed bool
}

// Add takes ownership of sub.
func (s *Scope) Add(sub Subscription) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Reset releases every owned subscription but keeps the scope usable.
func (s *Scope) Reset() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Close releases every owned subscription and marks the scope closed.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Reset()
}

// Len returns the number of owned subscriptions.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
