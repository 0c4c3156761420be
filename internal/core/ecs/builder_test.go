package ecs

import (
	"context"
	"errors"
	"testing"
)

func TestBuilder(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorld(t)

	e, err := NewBuilder(w).
		With(C(position{Y: 10}), C(velocity{})).
		WithIf(false, C(tag{})).
		Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !Has[position](w, e) || !Has[velocity](w, e) {
		t.Error("Expected position and velocity")
	}
	if Has[tag](w, e) {
		t.Error("Expected WithIf(false) to skip tag")
	}
	if p, _ := Get[position](w, e); p.Y != 10 {
		t.Errorf("Expected Y 10, got %v", p.Y)
	}
}

func TestBuilderDestroysOnFailure(t *testing.T) {
	ctx := context.Background()
	w := NewWorld(Options{MaxEntities: 8, MaxComponentTypes: 1})

	_, err := NewBuilder(w).With(C(position{}), C(velocity{})).Build(ctx)
	if !errors.Is(err, ErrTooManyComponentTypes) {
		t.Fatalf("Expected ErrTooManyComponentTypes, got %v", err)
	}
	if w.ActiveCount() != 0 {
		t.Errorf("Expected failed build to leave no entity, got %d", w.ActiveCount())
	}
	if MustStore[position](w).Len() != 0 {
		t.Error("Expected partial components dropped")
	}
}

func TestBuildWith(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorld(t)
	boom := errors.New("boom")

	var seen Entity
	e, err := NewBuilder(w).With(C(position{})).BuildWith(ctx, func(e Entity) error {
		seen = e
		return nil
	})
	if err != nil || seen != e {
		t.Fatalf("Expected callback with %s, got %s (%v)", e, seen, err)
	}

	_, err = NewBuilder(w).BuildWith(ctx, func(Entity) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if w.ActiveCount() != 1 {
		t.Errorf("Expected 1 active entity, got %d", w.ActiveCount())
	}
}
