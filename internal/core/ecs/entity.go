package ecs

import "fmt"

// DefaultMaxEntities bounds the id space when no capacity is configured.
const DefaultMaxEntities = 5000

// Entity is a generational handle. ID 0 is reserved as the null entity; a
// handle stays valid until its ID is destroyed and the version moves on.
type Entity struct {
	ID      uint32
	Version uint32
}

// Null is the zero handle; it is never alive.
var Null Entity

func (e Entity) IsNull() bool { return e.ID == 0 }

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.ID, e.Version)
}

// EntityPool manages entity allocation with generational indices and a free list.
// It is not safe for concurrent use; World serialises access.
type EntityPool struct {
	versions []uint32 // indexed by ID, fixed length = capacity
	freeList []uint32
	nextID   uint32
}

func NewEntityPool(capacity int) *EntityPool {
	if capacity <= 1 {
		capacity = DefaultMaxEntities
	}
	return &EntityPool{
		versions: make([]uint32, capacity),
		freeList: make([]uint32, 0, 256),
		nextID:   1,
	}
}

// Capacity is the size of the id space, including the reserved null id.
func (p *EntityPool) Capacity() int { return len(p.versions) }

// Create pops a recycled id or allocates a fresh one. The handle carries the
// id's current version.
func (p *EntityPool) Create() (Entity, error) {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return Entity{ID: id, Version: p.versions[id]}, nil
	}
	if int(p.nextID) >= len(p.versions) {
		return Null, fmt.Errorf("create entity (capacity %d): %w", len(p.versions), ErrCapacityExceeded)
	}
	id := p.nextID
	p.nextID++
	return Entity{ID: id, Version: p.versions[id]}, nil
}

func (p *EntityPool) Alive(e Entity) bool {
	if e.ID == 0 || e.ID >= p.nextID {
		return false
	}
	return p.versions[e.ID] == e.Version
}

// Destroy retires e. Null and stale handles are ignored.
func (p *EntityPool) Destroy(e Entity) bool {
	if !p.Alive(e) {
		return false
	}
	p.versions[e.ID]++
	p.freeList = append(p.freeList, e.ID)
	return true
}

// ActiveCount returns the number of live entities.
func (p *EntityPool) ActiveCount() uint32 {
	return (p.nextID - 1) - uint32(len(p.freeList))
}

// TotalCreated returns the number of distinct ids ever handed out.
func (p *EntityPool) TotalCreated() uint32 { return p.nextID - 1 }
