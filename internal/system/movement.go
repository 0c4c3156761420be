package system

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/input"
)

// maxPitch keeps the view from flipping over the vertical.
const maxPitch = math.Pi/2 - 0.1

// MovementSystem applies first-person look and WASD movement from Input to
// every PlayerController entity. Jumps arrive as KeyPressed events.
// Phase 1 (Update). Writes Transform and Physics, so it runs sequential.
type MovementSystem struct {
	world *ecs.World
	bus   *event.Bus
	log   *zap.Logger
	jump  *event.Guard
}

func NewMovementSystem(world *ecs.World, bus *event.Bus, log *zap.Logger) *MovementSystem {
	return &MovementSystem{world: world, bus: bus, log: orNop(log)}
}

func (s *MovementSystem) Name() string         { return "movement" }
func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Init() error {
	s.jump = s.bus.SubscribeGuarded(event.KindKeyPressed, event.PriorityHigh, s.onKeyPressed)
	return nil
}

func (s *MovementSystem) Shutdown() { s.jump.Release() }

func (s *MovementSystem) Update(_ time.Duration) error {
	return ecs.Each3(s.world, func(e ecs.Entity, pc *component.PlayerController, t *component.Transform, in *component.Input) {
		look(pc, t, in)
		if ph, ok := ecs.TryGet[component.Physics](s.world, e); ok {
			move(pc, t, ph, in)
		}
	})
}

func look(pc *component.PlayerController, t *component.Transform, in *component.Input) {
	t.Rotation.Y += in.LookDX * pc.MouseSensitivity
	pc.Pitch += in.LookDY * pc.MouseSensitivity
	pc.Pitch = math.Max(-maxPitch, math.Min(maxPitch, pc.Pitch))
	// The body stays upright; only yaw turns it.
	t.Rotation.X = 0
	t.Rotation.Z = 0
}

// move sets horizontal velocity from the input direction rotated by yaw and
// keeps vertical velocity.
func move(pc *component.PlayerController, t *component.Transform, ph *component.Physics, in *component.Input) {
	if in.Move.X == 0 && in.Move.Z == 0 {
		ph.Velocity.X = 0
		ph.Velocity.Z = 0
		return
	}
	sin, cos := math.Sincos(t.Rotation.Y)
	ph.Velocity.X = (in.Move.X*cos + in.Move.Z*sin) * pc.MoveSpeed
	ph.Velocity.Z = (in.Move.Z*cos - in.Move.X*sin) * pc.MoveSpeed
}

func (s *MovementSystem) onKeyPressed(_ context.Context, ev *event.Event) {
	ae, ok := ev.Payload.(input.ActionEvent)
	if !ok || ae.Action != input.ActionJump {
		return
	}
	ecs.Each2(s.world, func(e ecs.Entity, pc *component.PlayerController, ph *component.Physics) {
		if !ph.Grounded || !pc.CanJump {
			return
		}
		ph.Velocity.Y = pc.JumpSpeed
		ph.Grounded = false
		ev.Handled = true
		s.log.Debug("jump", zap.Stringer("entity", e))
	})
}
