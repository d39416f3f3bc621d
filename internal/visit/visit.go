// Package visit keeps the state of each page visit in memory between the
// full page load and the fragment requests that follow it.
package visit

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry stores values of type T keyed by an opaque visit ID. Entries
// expire after the TTL; an expired visit behaves like a missing one.
type Registry[T any] struct {
	cache *cache.Cache
}

// NewRegistry creates a registry whose entries live for ttl after their last use
func NewRegistry[T any](ttl time.Duration) *Registry[T] {
	return &Registry[T]{cache: cache.New(ttl, 2*ttl)}
}

// Start registers a new visit and returns its ID
func (r *Registry[T]) Start(v T) string {
	id := uuid.NewString()
	r.cache.Set(id, v, cache.DefaultExpiration)
	return id
}

// Get returns the state of a visit and refreshes its expiry
func (r *Registry[T]) Get(id string) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}
	raw, ok := r.cache.Get(id)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	r.cache.Set(id, v, cache.DefaultExpiration)
	return v, true
}

// End discards a visit
func (r *Registry[T]) End(id string) {
	r.cache.Delete(id)
}

// EndWhere discards every live visit whose state matches and returns how
// many were discarded
func (r *Registry[T]) EndWhere(match func(T) bool) int {
	n := 0
	for id, item := range r.cache.Items() {
		if v, ok := item.Object.(T); ok && match(v) {
			r.cache.Delete(id)
			n++
		}
	}
	return n
}

// Len returns the number of live visits
func (r *Registry[T]) Len() int {
	return r.cache.ItemCount()
}
