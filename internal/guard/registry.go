package guard

import "sync"

// Registry hands out one Submission per key. Different keys never share
// state or contend on the same lock while creating.
type Registry[T any] struct {
	mu         sync.Mutex
	guards     map[string]*Submission[T]
	maxRetries int
}

func NewRegistry[T any](maxRetries int) *Registry[T] {
	return &Registry[T]{guards: make(map[string]*Submission[T]), maxRetries: maxRetries}
}

func (r *Registry[T]) For(key string) *Submission[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[key]
	if !ok {
		g = New[T](r.maxRetries)
		r.guards[key] = g
	}
	return g
}

func (r *Registry[T]) Lookup(key string) (*Submission[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[key]
	return g, ok
}

// Forget drops the guard for key. A call still in flight on it completes
// but later callers start from a fresh guard.
func (r *Registry[T]) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.guards, key)
}

// ForgetSettled drops the guard for key unless a call on it is in flight.
// It reports whether a guard was dropped.
func (r *Registry[T]) ForgetSettled(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[key]
	if !ok {
		return false
	}
	switch g.State() {
	case StateValidating, StateSubmitting:
		return false
	}
	delete(r.guards, key)
	return true
}

// Keys returns a snapshot of the keys that have a guard.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.guards))
	for k := range r.guards {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.guards)
}
