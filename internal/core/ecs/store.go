package ecs

import "sync"

// TypeID is the stable small integer assigned to a component type on first use.
type TypeID uint8

// AnyStore is implemented by every Store so World can manage stores without
// knowing their component type.
type AnyStore interface {
	TypeID() TypeID
	Name() string
	Len() int
	Has(e Entity) bool
	drop(e Entity) bool
}

// Store is the per-type component container: a SparseSet behind its own lock.
// Structural changes (insert and drop) go through World so the entity's
// signature changes in the same critical section.
//
// Pointers returned by Get and TryGet stay valid until the next structural
// change to this store; callers in parallel systems use Update or EachMut
// when they write.
type Store[T any] struct {
	mu   sync.RWMutex
	set  *SparseSet[T]
	id   TypeID
	name string
}

func newStore[T any](id TypeID, name string, capacity int) *Store[T] {
	return &Store[T]{set: NewSparseSet[T](capacity), id: id, name: name}
}

func (s *Store[T]) TypeID() TypeID { return s.id }
func (s *Store[T]) Name() string   { return s.name }

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Len()
}

func (s *Store[T]) Has(e Entity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Has(e)
}

func (s *Store[T]) Get(e Entity) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Get(e)
}

func (s *Store[T]) TryGet(e Entity) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.TryGet(e)
}

// Value returns a copy of e's component.
func (s *Store[T]) Value(e Entity) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.set.TryGet(e); ok {
		return *v, true
	}
	var zero T
	return zero, false
}

// Update runs fn on e's component under the write lock. It reports whether
// the component was present.
func (s *Store[T]) Update(e Entity, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.set.TryGet(e)
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Each visits every component in dense order under the read lock.
// fn must not call back into World: the store lock is already held, which
// would invert the World-then-Store lock order. Use Each2/Each3 for that.
func (s *Store[T]) Each(fn func(Entity, *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < s.set.Len(); i++ {
		fn(s.set.EntityAt(i), s.set.At(i))
	}
}

// EachMut is Each under the write lock.
func (s *Store[T]) EachMut(fn func(Entity, *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.set.Len(); i++ {
		fn(s.set.EntityAt(i), s.set.At(i))
	}
}

// Entities returns a snapshot of the owners in dense order.
func (s *Store[T]) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, s.set.Len())
	for i := range out {
		out[i] = s.set.EntityAt(i)
	}
	return out
}

func (s *Store[T]) insert(e Entity, v T) (overwrote bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	overwrote = s.set.Has(e)
	return overwrote, s.set.Insert(e, v)
}

func (s *Store[T]) drop(e Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Remove(e)
}
