package system

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/spatial"
)

func firing() component.Input {
	return component.Input{Down: input.Actions(0).With(input.ActionFire)}
}

func dummy(t *testing.T, w *ecs.World, pos spatial.Vec3) ecs.Entity {
	t.Helper()
	return spawn(t, w,
		ecs.C(component.NewTransform(pos)),
		ecs.C(component.NewCollider(spatial.V(0.5, 0.5, 0.5))),
		ecs.C(component.NewHealth(100)))
}

func hp(t *testing.T, w *ecs.World, e ecs.Entity) float64 {
	t.Helper()
	h, err := ecs.Get[component.Health](w, e)
	if err != nil {
		t.Fatalf("health of %v: %v", e, err)
	}
	return h.Current
}

func newWeaponSystem(t *testing.T, w *ecs.World, bus *event.Bus) *WeaponSystem {
	t.Helper()
	physics := NewPhysicsSystem(w, DefaultPhysicsConfig())
	if err := physics.Update(time.Millisecond); err != nil { // index colliders
		t.Fatalf("physics: %v", err)
	}
	return NewWeaponSystem(w, bus, physics, nil)
}

func TestWeaponHitsNearestLivingTarget(t *testing.T) {
	w, bus := newTestWorld(t)
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(component.NewCollider(spatial.V(0.5, 0.5, 0.5))),
		ecs.C(component.NewHealth(100)),
		ecs.C(firing()),
		ecs.C(component.NewWeapon()))
	far := dummy(t, w, spatial.V(0, 0, 10))
	near := dummy(t, w, spatial.V(0, 0, 5))
	dummy(t, w, spatial.V(0, 0, -5)) // behind

	var shots []ShotEvent
	bus.Subscribe(KindWeaponHit, event.PriorityNormal, func(_ context.Context, ev *event.Event) {
		shots = append(shots, ev.Payload.(ShotEvent))
	})

	s := newWeaponSystem(t, w, bus)
	if err := s.Update(16 * time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := hp(t, w, near); got != 90 {
		t.Errorf("Expected near target at 90 HP, got %v", got)
	}
	if got := hp(t, w, far); got != 100 {
		t.Errorf("Expected far target untouched, got %v", got)
	}
	if got := hp(t, w, shooter); got != 100 {
		t.Errorf("Expected shooter untouched, got %v", got)
	}
	if len(shots) != 1 || shots[0].Shooter != shooter || shots[0].Target != near {
		t.Fatalf("Expected one shot on the near target, got %+v", shots)
	}
	if math.Abs(shots[0].Distance-4.5) > eps {
		t.Errorf("Expected distance 4.5, got %v", shots[0].Distance)
	}

	h, _ := ecs.Get[component.Health](w, near)
	h.Dead = true
	if err := s.Update(250 * time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := hp(t, w, far); got != 90 {
		t.Errorf("Expected shot to pass the dead target and hit the far one, got %v HP", got)
	}
	if len(shots) != 2 || shots[1].Target != far {
		t.Fatalf("Expected second shot on the far target, got %+v", shots)
	}
}

func TestWeaponCooldown(t *testing.T) {
	w, bus := newTestWorld(t)
	wp := component.NewWeapon()
	wp.FireRate = 0.5
	wp.SinceLastShot = 0.5
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(firing()),
		ecs.C(wp))
	s := newWeaponSystem(t, w, bus)

	ammo := func() int {
		got, _ := ecs.Get[component.Weapon](w, shooter)
		return got.Ammo
	}
	tests := []struct {
		name string
		ammo int
	}{
		{"ready at spawn", 29},
		{"0.125s", 29},
		{"0.25s", 29},
		{"0.375s", 29},
		{"0.5s", 28},
		{"reset after shot", 28},
	}
	for _, tt := range tests {
		if err := s.Update(125 * time.Millisecond); err != nil {
			t.Fatalf("update: %v", err)
		}
		if got := ammo(); got != tt.ammo {
			t.Errorf("%s: expected %d rounds, got %d", tt.name, tt.ammo, got)
		}
	}
}

func TestWeaponAmmoDepletion(t *testing.T) {
	w, bus := newTestWorld(t)
	wp := component.NewWeapon()
	wp.FireRate = 0
	wp.Ammo = 2
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(firing()),
		ecs.C(wp))
	target := dummy(t, w, spatial.V(0, 0, 5))
	s := newWeaponSystem(t, w, bus)

	for i := 0; i < 4; i++ {
		if err := s.Update(16 * time.Millisecond); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if got := hp(t, w, target); got != 80 {
		t.Errorf("Expected two hits (80 HP), got %v", got)
	}
	if got, _ := ecs.Get[component.Weapon](w, shooter); got.Ammo != 0 {
		t.Errorf("Expected empty magazine, got %d", got.Ammo)
	}
}

func TestWeaponHoldsFire(t *testing.T) {
	w, bus := newTestWorld(t)
	idle := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(component.Input{}),
		ecs.C(component.NewWeapon()))
	unbound := spawn(t, w,
		ecs.C(component.NewTransform(spatial.V(1, 0, 0))),
		ecs.C(component.NewWeapon()))
	target := dummy(t, w, spatial.V(0, 0, 5))

	if err := newWeaponSystem(t, w, bus).Update(16 * time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, e := range []ecs.Entity{idle, unbound} {
		if got, _ := ecs.Get[component.Weapon](w, e); got.Ammo != 30 {
			t.Errorf("Expected %v not to fire, ammo %d", e, got.Ammo)
		}
	}
	if got := hp(t, w, target); got != 100 {
		t.Errorf("Expected target untouched, got %v", got)
	}
}

func TestWeaponMissesOutOfRange(t *testing.T) {
	w, bus := newTestWorld(t)
	wp := component.NewWeapon()
	wp.Range = 3
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(firing()),
		ecs.C(wp))
	target := dummy(t, w, spatial.V(0, 0, 5))

	hits := 0
	bus.Subscribe(KindWeaponHit, event.PriorityNormal, func(context.Context, *event.Event) { hits++ })

	if err := newWeaponSystem(t, w, bus).Update(16 * time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := ecs.Get[component.Weapon](w, shooter); got.Ammo != 29 {
		t.Errorf("Expected a round spent on the miss, got %d", got.Ammo)
	}
	if hits != 0 || hp(t, w, target) != 100 {
		t.Errorf("Expected a miss, got %d hits", hits)
	}
}

func TestWeaponFiresFromEye(t *testing.T) {
	w, bus := newTestWorld(t)
	shooter := spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(component.NewCamera()),
		ecs.C(firing()),
		ecs.C(component.NewWeapon()))
	low := dummy(t, w, spatial.V(0, 0, 4))
	high := dummy(t, w, spatial.V(0, 1.6, 8))

	if err := newWeaponSystem(t, w, bus).Update(16 * time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}
	if hp(t, w, low) != 100 || hp(t, w, high) != 90 {
		t.Errorf("Expected %v's shot at eye height to hit only %v", shooter, high)
	}
}
