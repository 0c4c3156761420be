package ecs

import (
	"context"
	"fmt"
	"reflect"

	"github.com/l1jgo/simcore/internal/core/event"
)

// StoreOf returns the store for component type T, registering it on first use.
func StoreOf[T any](w *World) (*Store[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	s, err := w.reg.lookup(t, func(id TypeID) AnyStore {
		return newStore[T](id, t.String(), w.reg.capacity)
	})
	if err != nil {
		return nil, err
	}
	return s.(*Store[T]), nil
}

// MustStore is StoreOf for setup code where exceeding the type limit is a
// programming error.
func MustStore[T any](w *World) *Store[T] {
	s, err := StoreOf[T](w)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeOf returns the TypeID of component type T.
func TypeOf[T any](w *World) (TypeID, error) {
	s, err := StoreOf[T](w)
	if err != nil {
		return 0, err
	}
	return s.id, nil
}

// Add attaches v to e, overwriting any existing T. The store insert and the
// signature bit change under one World lock. A stale handle changes nothing
// and returns ErrInvalidHandle.
func Add[T any](ctx context.Context, w *World, e Entity, v T) error {
	s, err := StoreOf[T](w)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if !w.pool.Alive(e) {
		w.mu.Unlock()
		return fmt.Errorf("add %s to %s: %w", s.name, e, ErrInvalidHandle)
	}
	if _, err := s.insert(e, v); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("add %s: %w", s.name, err)
	}
	w.sigs[e.ID] = w.sigs[e.ID].Set(s.id)
	w.mu.Unlock()

	if w.bus != nil {
		w.bus.Publish(ctx, componentEvent(event.KindComponentAdded, e, s))
	}
	return nil
}

// Remove detaches T from e. It reports whether a component was removed;
// stale handles and absent components are no-ops.
func Remove[T any](ctx context.Context, w *World, e Entity) bool {
	s, err := StoreOf[T](w)
	if err != nil {
		return false
	}

	w.mu.Lock()
	if !w.pool.Alive(e) || !s.drop(e) {
		w.mu.Unlock()
		return false
	}
	w.sigs[e.ID] = w.sigs[e.ID].Clear(s.id)
	w.mu.Unlock()

	if w.bus != nil {
		w.bus.Publish(ctx, componentEvent(event.KindComponentRemoved, e, s))
	}
	return true
}

// Get returns e's T. It fails with ErrInvalidHandle for a stale handle and
// ErrMissingComponent when e lacks T.
func Get[T any](w *World, e Entity) (*T, error) {
	s, err := StoreOf[T](w)
	if err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.pool.Alive(e) {
		return nil, fmt.Errorf("get %s of %s: %w", s.name, e, ErrInvalidHandle)
	}
	return s.Get(e)
}

func TryGet[T any](w *World, e Entity) (*T, bool) {
	s, err := StoreOf[T](w)
	if err != nil {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.pool.Alive(e) {
		return nil, false
	}
	return s.TryGet(e)
}

func Has[T any](w *World, e Entity) bool {
	_, ok := TryGet[T](w, e)
	return ok
}

// Require builds the signature matching every given store's type.
func Require(stores ...AnyStore) Signature {
	var sig Signature
	for _, s := range stores {
		sig = sig.Set(s.TypeID())
	}
	return sig
}
