package system

import (
	"math"
	"testing"
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/spatial"
)

func spawnPlayer(t *testing.T, w *ecs.World, grounded bool) ecs.Entity {
	t.Helper()
	ph := component.NewPhysics()
	ph.Grounded = grounded
	return spawn(t, w,
		ecs.C(component.NewTransform(spatial.Vec3{})),
		ecs.C(ph),
		ecs.C(component.Input{}),
		ecs.C(component.NewPlayerController()))
}

func TestInputSystemNormalisesDiagonal(t *testing.T) {
	w, bus := newTestWorld(t)
	e := spawnPlayer(t, w, false)
	src := &input.Static{}
	in := NewInputSystem(w, bus, src)

	src.Press(input.ActionMoveForward)
	src.Press(input.ActionMoveRight)
	if err := in.Update(time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := ecs.Get[component.Input](w, e)
	if math.Abs(got.Move.Len()-1) > eps {
		t.Errorf("Expected unit move vector, got %v (len %v)", got.Move, got.Move.Len())
	}
	if math.Abs(got.Move.X-got.Move.Z) > eps || got.Move.X <= 0 {
		t.Errorf("Expected equal positive X/Z, got %v", got.Move)
	}
	if !got.Pressed.Has(input.ActionMoveForward) {
		t.Error("Expected forward in pressed set")
	}

	in.Update(time.Millisecond)
	got, _ = ecs.Get[component.Input](w, e)
	if got.Pressed != 0 {
		t.Errorf("Expected no new presses while held, got %b", got.Pressed)
	}
}

func TestJumpOnlyWhenGrounded(t *testing.T) {
	tests := []struct {
		name     string
		grounded bool
		wantVY   float64
		handled  uint64
	}{
		{"grounded", true, 8, 1},
		{"airborne", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, bus := newTestWorld(t)
			e := spawnPlayer(t, w, tt.grounded)
			mv := NewMovementSystem(w, bus, nil)
			if err := mv.Init(); err != nil {
				t.Fatalf("init: %v", err)
			}
			defer mv.Shutdown()
			src := &input.Static{}
			in := NewInputSystem(w, bus, src)

			src.Press(input.ActionJump)
			in.Update(time.Millisecond)

			ph, _ := ecs.Get[component.Physics](w, e)
			if ph.Velocity.Y != tt.wantVY {
				t.Errorf("Expected vy %v, got %v", tt.wantVY, ph.Velocity.Y)
			}
			if got := bus.Stats().Handled; got != tt.handled {
				t.Errorf("Expected %d handled, got %d", tt.handled, got)
			}
		})
	}
}

func TestMovementFollowsYaw(t *testing.T) {
	w, bus := newTestWorld(t)
	e := spawnPlayer(t, w, true)
	tr, _ := ecs.Get[component.Transform](w, e)
	tr.Rotation.Y = math.Pi / 2
	in, _ := ecs.Get[component.Input](w, e)
	in.Move = spatial.V(0, 0, 1)

	mv := NewMovementSystem(w, bus, nil)
	mv.Update(time.Millisecond)

	ph, _ := ecs.Get[component.Physics](w, e)
	if math.Abs(ph.Velocity.X-5) > 1e-9 || math.Abs(ph.Velocity.Z) > 1e-9 {
		t.Errorf("Expected velocity (5,_,0) facing +X, got %v", ph.Velocity)
	}

	in.Move = spatial.Vec3{}
	mv.Update(time.Millisecond)
	if ph.Velocity.X != 0 || ph.Velocity.Z != 0 {
		t.Errorf("Expected horizontal stop without input, got %v", ph.Velocity)
	}
}

func TestLookClampsPitch(t *testing.T) {
	w, bus := newTestWorld(t)
	e := spawnPlayer(t, w, true)
	in, _ := ecs.Get[component.Input](w, e)
	in.LookDY = 1e6
	in.LookDX = 100

	NewMovementSystem(w, bus, nil).Update(time.Millisecond)

	pc, _ := ecs.Get[component.PlayerController](w, e)
	if pc.Pitch != maxPitch {
		t.Errorf("Expected pitch clamped to %v, got %v", maxPitch, pc.Pitch)
	}
	tr, _ := ecs.Get[component.Transform](w, e)
	if math.Abs(tr.Rotation.Y-0.2) > 1e-9 {
		t.Errorf("Expected yaw 0.2, got %v", tr.Rotation.Y)
	}
}
