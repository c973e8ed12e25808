// Package notify provides typed observer registration. Every model owns its
// own Registry; there is no process-wide bus.
package notify

import (
	"sort"
	"sync"
)

// Registry fans values of type T out to registered observers.
// The zero value is ready to use.
type Registry[T any] struct {
	mu        sync.RWMutex
	next      uint64
	observers map[uint64]func(T)
}

// Subscribe registers fn and returns the function that unregisters it.
// Calling the returned function more than once is harmless.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.observers == nil {
		r.observers = make(map[uint64]func(T))
	}
	id := r.next
	r.next++
	r.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.observers, id)
			r.mu.Unlock()
		})
	}
}

// Emit calls every observer with v, in registration order, on the calling
// goroutine. Observers may subscribe or unsubscribe while being called.
func (r *Registry[T]) Emit(v T) {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.observers[id])
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered observers.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Personal.AI order the ending
