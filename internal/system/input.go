package system

import (
	"context"
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/spatial"
)

// InputSystem polls the input source once per tick, copies the state into
// every Input component and publishes KeyPressed/KeyReleased for action
// edges and MouseMoved for look deltas.
// Phase 0 (PreUpdate).
type InputSystem struct {
	world  *ecs.World
	bus    *event.Bus
	source input.Source
	prev   input.Actions
}

func NewInputSystem(world *ecs.World, bus *event.Bus, source input.Source) *InputSystem {
	return &InputSystem{world: world, bus: bus, source: source}
}

func (s *InputSystem) Name() string         { return "input" }
func (s *InputSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *InputSystem) Update(_ time.Duration) error {
	st := s.source.Poll()
	pressed := st.Down &^ s.prev
	released := s.prev &^ st.Down
	s.prev = st.Down
	move := moveAxes(st.Down)

	store, err := ecs.StoreOf[component.Input](s.world)
	if err != nil {
		return err
	}
	store.EachMut(func(_ ecs.Entity, in *component.Input) {
		in.Down = st.Down
		in.Pressed = pressed
		in.Released = released
		in.Move = move
		in.LookDX = st.LookDX
		in.LookDY = st.LookDY
	})

	// Published after the store lock is released so handlers can read Input.
	ctx := context.Background()
	pressed.Each(func(a input.Action) {
		s.bus.Publish(ctx, event.New(event.KindKeyPressed, event.CategoryInput|event.CategoryKeyboard, input.ActionEvent{Action: a}))
	})
	released.Each(func(a input.Action) {
		s.bus.Publish(ctx, event.New(event.KindKeyReleased, event.CategoryInput|event.CategoryKeyboard, input.ActionEvent{Action: a}))
	})
	if st.LookDX != 0 || st.LookDY != 0 {
		s.bus.Publish(ctx, event.New(event.KindMouseMoved, event.CategoryInput|event.CategoryMouse, st))
	}
	return nil
}

// moveAxes turns held movement actions into a unit X/Z direction, so
// diagonals are no faster than straight moves.
func moveAxes(down input.Actions) spatial.Vec3 {
	var v spatial.Vec3
	if down.Has(input.ActionMoveForward) {
		v.Z++
	}
	if down.Has(input.ActionMoveBackward) {
		v.Z--
	}
	if down.Has(input.ActionMoveRight) {
		v.X++
	}
	if down.Has(input.ActionMoveLeft) {
		v.X--
	}
	return v.Normalize()
}
