package ecs

import "fmt"

const absent = ^uint32(0)

// SparseSet packs values of one component type densely. sparse maps an entity
// ID to its dense slot; dense[i] and owners[i] always describe the same entity.
// Handles are checked by version, so a recycled ID never reads stale data.
type SparseSet[T any] struct {
	dense  []T
	owners []Entity
	sparse []uint32
}

func NewSparseSet[T any](capacity int) *SparseSet[T] {
	if capacity <= 1 {
		capacity = DefaultMaxEntities
	}
	sparse := make([]uint32, capacity)
	for i := range sparse {
		sparse[i] = absent
	}
	return &SparseSet[T]{
		dense:  make([]T, 0, 64),
		owners: make([]Entity, 0, 64),
		sparse: sparse,
	}
}

func (s *SparseSet[T]) index(e Entity) (uint32, bool) {
	if e.ID == 0 || int(e.ID) >= len(s.sparse) {
		return 0, false
	}
	i := s.sparse[e.ID]
	if i == absent || s.owners[i] != e {
		return 0, false
	}
	return i, true
}

// Insert stores v for e, overwriting in place if e already has a value.
func (s *SparseSet[T]) Insert(e Entity, v T) error {
	if e.ID == 0 || int(e.ID) >= len(s.sparse) {
		return fmt.Errorf("insert %s: %w", e, ErrInvalidHandle)
	}
	if i := s.sparse[e.ID]; i != absent {
		// Same ID: either an overwrite or a stale owner left behind by a
		// previous generation. Either way the slot is reused.
		s.dense[i] = v
		s.owners[i] = e
		return nil
	}
	s.sparse[e.ID] = uint32(len(s.dense))
	s.dense = append(s.dense, v)
	s.owners = append(s.owners, e)
	return nil
}

// Remove deletes e's value by moving the last element into its slot.
// It reports whether a value was removed.
func (s *SparseSet[T]) Remove(e Entity) bool {
	i, ok := s.index(e)
	if !ok {
		return false
	}
	last := uint32(len(s.dense) - 1)
	if i != last {
		s.dense[i] = s.dense[last]
		moved := s.owners[last]
		s.owners[i] = moved
		s.sparse[moved.ID] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.owners = s.owners[:last]
	s.sparse[e.ID] = absent
	return true
}

// removeID drops whatever value is stored under id regardless of version.
func (s *SparseSet[T]) removeID(id uint32) bool {
	if id == 0 || int(id) >= len(s.sparse) {
		return false
	}
	i := s.sparse[id]
	if i == absent {
		return false
	}
	return s.Remove(s.owners[i])
}

func (s *SparseSet[T]) Get(e Entity) (*T, error) {
	i, ok := s.index(e)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", e, ErrMissingComponent)
	}
	return &s.dense[i], nil
}

func (s *SparseSet[T]) TryGet(e Entity) (*T, bool) {
	i, ok := s.index(e)
	if !ok {
		return nil, false
	}
	return &s.dense[i], true
}

func (s *SparseSet[T]) Has(e Entity) bool {
	_, ok := s.index(e)
	return ok
}

func (s *SparseSet[T]) Len() int { return len(s.dense) }

// EntityAt returns the owner of dense slot i.
func (s *SparseSet[T]) EntityAt(i int) Entity { return s.owners[i] }

// At returns the value in dense slot i.
func (s *SparseSet[T]) At(i int) *T { return &s.dense[i] }

func (s *SparseSet[T]) Clear() {
	for _, e := range s.owners {
		s.sparse[e.ID] = absent
	}
	clear(s.dense)
	s.dense = s.dense[:0]
	s.owners = s.owners[:0]
}
