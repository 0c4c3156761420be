package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/spatial"
)

// HealthSystem regenerates health and detects deaths. The death itself is
// queued as KindEntityDied; the handler disables the body when the queue
// drains at the start of the next tick.
// Phase 1 (Update). Parallel-safe: Update writes only Health.
type HealthSystem struct {
	world *ecs.World
	bus   *event.Bus
	log   *zap.Logger
	died  *event.Guard
}

func NewHealthSystem(world *ecs.World, bus *event.Bus, log *zap.Logger) *HealthSystem {
	return &HealthSystem{world: world, bus: bus, log: orNop(log)}
}

func (s *HealthSystem) Name() string         { return "health" }
func (s *HealthSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }
func (s *HealthSystem) ParallelSafe() bool   { return true }

func (s *HealthSystem) Init() error {
	s.died = s.bus.SubscribeGuarded(KindEntityDied, event.PriorityNormal, s.onDied)
	return nil
}

func (s *HealthSystem) Shutdown() { s.died.Release() }

func (s *HealthSystem) Update(dt time.Duration) error {
	store, err := ecs.StoreOf[component.Health](s.world)
	if err != nil {
		return err
	}
	sec := seconds(dt)
	var dead []ecs.Entity
	store.EachMut(func(e ecs.Entity, h *component.Health) {
		if h.Dead {
			return
		}
		if h.RegenRate > 0 && h.Current < h.Max {
			h.Current = min(h.Current+h.RegenRate*sec, h.Max)
		}
		if h.Current <= 0 {
			h.Current = 0
			h.Dead = true
			dead = append(dead, e)
		}
	})
	for _, e := range dead {
		s.bus.Queue(event.New(KindEntityDied, event.CategoryGameplay, DeathEvent{Entity: e}))
	}
	return nil
}

// onDied stops a dead entity colliding and moving and hides it.
func (s *HealthSystem) onDied(_ context.Context, ev *event.Event) {
	de, ok := ev.Payload.(DeathEvent)
	if !ok || !s.world.Alive(de.Entity) {
		return
	}
	s.log.Info("entity died", zap.Stringer("entity", de.Entity))

	if c, err := ecs.StoreOf[component.Collider](s.world); err == nil {
		c.Update(de.Entity, func(c *component.Collider) { c.Enabled = false })
	}
	if p, err := ecs.StoreOf[component.Physics](s.world); err == nil {
		p.Update(de.Entity, func(p *component.Physics) {
			p.CheckCollisions = false
			p.Velocity = spatial.Vec3{}
		})
	}
	if r, err := ecs.StoreOf[component.Renderable](s.world); err == nil {
		r.Update(de.Entity, func(r *component.Renderable) { r.Hidden = true })
	}
}
