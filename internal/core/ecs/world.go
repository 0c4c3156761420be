package ecs

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/event"
)

// Options configures a World. Zero values pick the defaults.
type Options struct {
	MaxEntities       int
	MaxComponentTypes int
	Bus               *event.Bus // lifecycle events are skipped when nil
	Log               *zap.Logger
}

// World is the top-level ECS container. It owns the entity pool, the component
// registry, the signature table and a deferred destruction queue flushed by
// CleanupSystem each tick.
//
// mu guards the pool, the signatures and store membership as one unit:
// create, destroy, add and remove take it exclusively, queries take it shared.
// Lock order is World then Store. Lifecycle events are published after mu is
// released, so handlers may call back into the World.
type World struct {
	id   uuid.UUID
	mu   sync.RWMutex
	pool *EntityPool
	reg  *Registry

	sigs    []Signature // indexed by entity ID
	live    []Entity
	livePos []int32 // indexed by entity ID, -1 when not live

	destroyMu    sync.Mutex
	destroyQueue []Entity

	bus *event.Bus
	log *zap.Logger
}

func NewWorld(opts Options) *World {
	if opts.MaxEntities <= 1 {
		opts.MaxEntities = DefaultMaxEntities
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	id := uuid.New()
	pos := make([]int32, opts.MaxEntities)
	for i := range pos {
		pos[i] = -1
	}
	w := &World{
		id:           id,
		pool:         NewEntityPool(opts.MaxEntities),
		reg:          NewRegistry(opts.MaxComponentTypes, opts.MaxEntities),
		sigs:         make([]Signature, opts.MaxEntities),
		live:         make([]Entity, 0, 256),
		livePos:      pos,
		destroyQueue: make([]Entity, 0, 64),
		bus:          opts.Bus,
		log:          opts.Log.With(zap.String("world", id.String())),
	}
	w.log.Debug("world created",
		zap.Int("max_entities", opts.MaxEntities),
		zap.Int("max_component_types", w.reg.limit))
	return w
}

func (w *World) ID() uuid.UUID       { return w.id }
func (w *World) Bus() *event.Bus     { return w.bus }
func (w *World) Registry() *Registry { return w.reg }
func (w *World) Log() *zap.Logger    { return w.log }

// CreateEntity allocates an entity with an empty signature.
func (w *World) CreateEntity() (Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.pool.Create()
	if err != nil {
		return Null, err
	}
	w.sigs[e.ID] = 0
	w.livePos[e.ID] = int32(len(w.live))
	w.live = append(w.live, e)
	return e, nil
}

// DestroyEntity drops every component of e, clears its signature and
// recycles its id. Stale and null handles are ignored.
func (w *World) DestroyEntity(ctx context.Context, e Entity) bool {
	w.mu.Lock()
	if !w.pool.Alive(e) {
		w.mu.Unlock()
		return false
	}
	dropped := w.reg.dropAll(e, w.sigs[e.ID])
	w.sigs[e.ID] = 0
	w.unlink(e.ID)
	w.pool.Destroy(e)
	w.mu.Unlock()

	if w.bus != nil {
		for _, s := range dropped {
			w.bus.Publish(ctx, componentEvent(event.KindComponentRemoved, e, s))
		}
		w.bus.Publish(ctx, event.New(event.KindEntityDestroyed, event.CategoryECS, EntityEvent{Entity: e}))
	}
	return true
}

// unlink removes id from the live list by swapping in the last entry.
// Caller holds mu.
func (w *World) unlink(id uint32) {
	i := w.livePos[id]
	last := len(w.live) - 1
	if int(i) != last {
		moved := w.live[last]
		w.live[i] = moved
		w.livePos[moved.ID] = i
	}
	w.live = w.live[:last]
	w.livePos[id] = -1
}

func (w *World) Alive(e Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool.Alive(e)
}

func (w *World) ActiveCount() uint32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool.ActiveCount()
}

func (w *World) TotalCreated() uint32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool.TotalCreated()
}

// Signature returns e's signature.
func (w *World) Signature(e Entity) (Signature, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.pool.Alive(e) {
		return 0, fmt.Errorf("signature of %s: %w", e, ErrInvalidHandle)
	}
	return w.sigs[e.ID], nil
}

// Query returns a snapshot of every live entity whose signature contains
// required. An empty required signature matches every live entity.
func (w *World) Query(required Signature) []Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entity, 0, 16)
	for _, e := range w.live {
		if w.sigs[e.ID].Contains(required) {
			out = append(out, e)
		}
	}
	return out
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Safe to call
// from parallel systems.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyMu.Lock()
	w.destroyQueue = append(w.destroyQueue, e)
	w.destroyMu.Unlock()
}

// PendingDestruction returns the number of queued entities.
func (w *World) PendingDestruction() int {
	w.destroyMu.Lock()
	defer w.destroyMu.Unlock()
	return len(w.destroyQueue)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Entities queued more than once are destroyed once. Called by CleanupSystem
// at the end of each tick.
func (w *World) FlushDestroyQueue(ctx context.Context) int {
	w.destroyMu.Lock()
	queued := w.destroyQueue
	w.destroyQueue = make([]Entity, 0, cap(queued))
	w.destroyMu.Unlock()

	n := 0
	for _, e := range queued {
		if w.DestroyEntity(ctx, e) {
			n++
		}
	}
	return n
}
