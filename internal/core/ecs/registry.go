package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry tracks all component stores, assigning each component type its
// TypeID on first use. It has its own lock so stores can be looked up
// lazily from parallel systems.
type Registry struct {
	mu       sync.RWMutex
	ids      map[reflect.Type]TypeID
	stores   []AnyStore
	limit    int
	capacity int
}

func NewRegistry(limit, capacity int) *Registry {
	if limit <= 0 || limit > MaxComponentTypes {
		limit = MaxComponentTypes
	}
	return &Registry{
		ids:      make(map[reflect.Type]TypeID, 16),
		stores:   make([]AnyStore, 0, 16),
		limit:    limit,
		capacity: capacity,
	}
}

// lookup returns the store registered for t, creating it with mk if absent.
func (r *Registry) lookup(t reflect.Type, mk func(TypeID) AnyStore) (AnyStore, error) {
	r.mu.RLock()
	id, ok := r.ids[t]
	if ok {
		s := r.stores[id]
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[t]; ok {
		return r.stores[id], nil
	}
	if len(r.stores) >= r.limit {
		return nil, fmt.Errorf("register %s (limit %d): %w", t, r.limit, ErrTooManyComponentTypes)
	}
	id = TypeID(len(r.stores))
	s := mk(id)
	r.ids[t] = id
	r.stores = append(r.stores, s)
	return s, nil
}

// Stores returns a snapshot of every registered store in TypeID order.
func (r *Registry) Stores() []AnyStore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AnyStore, len(r.stores))
	copy(out, r.stores)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// dropAll clears e from every store that holds it, returning the stores
// that had a component.
func (r *Registry) dropAll(e Entity, sig Signature) []AnyStore {
	var dropped []AnyStore
	for _, s := range r.Stores() {
		if !sig.Has(s.TypeID()) {
			continue
		}
		if s.drop(e) {
			dropped = append(dropped, s)
		}
	}
	return dropped
}
