package ecs

import (
	"context"
	"fmt"
)

// Attachable is one component value waiting to be added by an EntityBuilder.
type Attachable interface {
	attach(ctx context.Context, w *World, e Entity) error
}

type part[T any] struct{ v T }

func (p part[T]) attach(ctx context.Context, w *World, e Entity) error {
	return Add(ctx, w, e, p.v)
}

// C wraps a component value for EntityBuilder.With.
func C[T any](v T) Attachable { return part[T]{v: v} }

// EntityBuilder collects components and creates the entity in one step.
//
//	e, err := ecs.NewBuilder(w).
//		With(ecs.C(component.NewTransform(pos)), ecs.C(component.NewPhysics())).
//		WithIf(visible, ecs.C(component.Renderable{Mesh: "cube"})).
//		Build(ctx)
type EntityBuilder struct {
	w     *World
	parts []Attachable
}

func NewBuilder(w *World) *EntityBuilder {
	return &EntityBuilder{w: w}
}

func (b *EntityBuilder) With(parts ...Attachable) *EntityBuilder {
	b.parts = append(b.parts, parts...)
	return b
}

func (b *EntityBuilder) WithIf(cond bool, parts ...Attachable) *EntityBuilder {
	if cond {
		b.parts = append(b.parts, parts...)
	}
	return b
}

// Build creates the entity and attaches the collected components in order.
// If any attach fails the entity is destroyed and the error returned.
func (b *EntityBuilder) Build(ctx context.Context) (Entity, error) {
	return b.BuildWith(ctx, nil)
}

// BuildWith is Build followed by fn, which can attach components whose
// values depend on the new handle. A failing fn also destroys the entity.
func (b *EntityBuilder) BuildWith(ctx context.Context, fn func(Entity) error) (Entity, error) {
	e, err := b.w.CreateEntity()
	if err != nil {
		return Null, err
	}
	for i, p := range b.parts {
		if err := p.attach(ctx, b.w, e); err != nil {
			b.w.DestroyEntity(ctx, e)
			return Null, fmt.Errorf("build entity: component %d: %w", i, err)
		}
	}
	if fn != nil {
		if err := fn(e); err != nil {
			b.w.DestroyEntity(ctx, e)
			return Null, fmt.Errorf("build entity: %w", err)
		}
	}
	return e, nil
}
