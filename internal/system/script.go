package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/scripting"
	"github.com/l1jgo/simcore/internal/spatial"
)

// ScriptSystem runs each Script entity's Lua behaviour and applies the
// commands it returns. A failing script is logged and skipped; it never
// fails the tick.
// Phase 1 (Update). The Lua VM is single-goroutine, so sequential.
type ScriptSystem struct {
	world   *ecs.World
	lua     *scripting.Engine
	log     *zap.Logger
	elapsed float64
	failed  map[ecs.Entity]string // last error per entity, to log once
}

func NewScriptSystem(world *ecs.World, lua *scripting.Engine, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{world: world, lua: lua, log: orNop(log), failed: make(map[ecs.Entity]string)}
}

func (s *ScriptSystem) Name() string         { return "script" }
func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(dt time.Duration) error {
	sec := seconds(dt)
	s.elapsed += sec

	store, err := ecs.StoreOf[component.Script](s.world)
	if err != nil {
		return err
	}
	for e := range s.failed {
		if !store.Has(e) {
			delete(s.failed, e)
		}
	}
	for _, e := range store.Entities() {
		sc, ok := store.TryGet(e)
		if !ok {
			continue
		}
		cmds, err := s.lua.CallBehaviour(sc.Behaviour, s.context(e, sc, sec))
		if err != nil {
			if msg := err.Error(); s.failed[e] != msg {
				s.failed[e] = msg
				s.log.Error("script failed", zap.Stringer("entity", e), zap.String("behaviour", sc.Behaviour), zap.Error(err))
			}
			continue
		}
		delete(s.failed, e)
		for _, c := range cmds {
			s.apply(e, c)
		}
	}
	return nil
}

func (s *ScriptSystem) context(e ecs.Entity, sc *component.Script, sec float64) scripting.BehaviourContext {
	ctx := scripting.BehaviourContext{EntityID: e.ID, DT: sec, Time: s.elapsed, Params: sc.Params}
	if n, ok := ecs.TryGet[component.Name](s.world, e); ok {
		ctx.Name = n.Value
	}
	if t, ok := ecs.TryGet[component.Transform](s.world, e); ok {
		ctx.X, ctx.Y, ctx.Z = t.Position.X, t.Position.Y, t.Position.Z
	}
	if p, ok := ecs.TryGet[component.Physics](s.world, e); ok {
		ctx.HasPhysics = true
		ctx.VX, ctx.VY, ctx.VZ = p.Velocity.X, p.Velocity.Y, p.Velocity.Z
		ctx.Grounded = p.Grounded
	}
	if h, ok := ecs.TryGet[component.Health](s.world, e); ok {
		ctx.HasHealth = true
		ctx.HP, ctx.MaxHP = h.Current, h.Max
	}
	return ctx
}

func (s *ScriptSystem) apply(e ecs.Entity, c scripting.Command) {
	switch c.Type {
	case "velocity":
		if p, ok := ecs.TryGet[component.Physics](s.world, e); ok {
			p.Velocity = spatial.V(c.X, c.Y, c.Z)
		}
	case "move":
		if t, ok := ecs.TryGet[component.Transform](s.world, e); ok {
			t.Position = t.Position.Add(spatial.V(c.X, c.Y, c.Z))
		}
	case "heal":
		if h, ok := ecs.TryGet[component.Health](s.world, e); ok && !h.Dead {
			h.Current = min(h.Current+c.Amount, h.Max)
		}
	case "damage":
		if h, ok := ecs.TryGet[component.Health](s.world, e); ok && !h.Dead {
			h.Current -= c.Amount
		}
	case "destroy":
		s.world.MarkForDestruction(e)
	case "log":
		s.log.Info("script", zap.Stringer("entity", e), zap.String("msg", c.Message))
	default:
		s.log.Warn("unknown script command", zap.Stringer("entity", e), zap.String("type", c.Type))
	}
}
