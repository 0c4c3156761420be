package system

import (
	"context"
	"testing"
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	"github.com/l1jgo/simcore/internal/spatial"
)

func TestProjectileHitsTarget(t *testing.T) {
	w, bus := newTestWorld(t)
	target := spawn(t, w,
		ecs.C(component.NewTransform(spatial.V(5, 0, 0))),
		ecs.C(component.NewCollider(spatial.V(1, 1, 1))),
		ecs.C(component.NewHealth(100)))
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.V(0, 0, 0))),
		ecs.C(component.NewCollider(spatial.V(0.5, 0.5, 0.5))),
		ecs.C(component.NewHealth(100)))
	shot := spawn(t, w,
		ecs.C(component.NewTransform(spatial.V(3, 0, 0))),
		ecs.C(component.Projectile{Direction: spatial.V(1, 0, 0), Speed: 20, Damage: 25, Lifetime: 5, Owner: shooter}))

	var hits []HitEvent
	bus.Subscribe(KindProjectileHit, event.PriorityNormal, func(_ context.Context, ev *event.Event) {
		hits = append(hits, ev.Payload.(HitEvent))
	})

	physics := NewPhysicsSystem(w, DefaultPhysicsConfig())
	physics.Update(time.Millisecond) // index colliders
	NewProjectileSystem(w, bus, physics, nil).Update(100 * time.Millisecond)

	h, _ := ecs.Get[component.Health](w, target)
	if h.Current != 75 {
		t.Errorf("Expected 75 HP, got %v", h.Current)
	}
	if own, _ := ecs.Get[component.Health](w, shooter); own.Current != 100 {
		t.Errorf("Expected owner untouched, got %v", own.Current)
	}
	if len(hits) != 1 || hits[0].Target != target || hits[0].Projectile != shot {
		t.Fatalf("Expected one hit on target, got %+v", hits)
	}
	if w.PendingDestruction() != 1 {
		t.Errorf("Expected projectile marked, got %d pending", w.PendingDestruction())
	}

	w.FlushDestroyQueue(context.Background())
	if w.Alive(shot) {
		t.Error("Expected projectile destroyed after flush")
	}
}

func TestProjectileExpires(t *testing.T) {
	w, bus := newTestWorld(t)
	shot := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(component.Projectile{Direction: spatial.V(0, 0, 1), Speed: 1, Lifetime: 0.05}))

	physics := NewPhysicsSystem(w, DefaultPhysicsConfig())
	s := NewProjectileSystem(w, bus, physics, nil)
	s.Update(100 * time.Millisecond)

	if w.PendingDestruction() != 1 {
		t.Fatalf("Expected expired projectile marked, got %d", w.PendingDestruction())
	}
	tr, _ := ecs.Get[component.Transform](w, shot)
	if tr.Position != (spatial.Vec3{}) {
		t.Errorf("Expected expired projectile not to move, got %v", tr.Position)
	}

	// A spent projectile is not marked twice.
	s.Update(100 * time.Millisecond)
	if w.PendingDestruction() != 1 {
		t.Errorf("Expected 1 pending, got %d", w.PendingDestruction())
	}
}
