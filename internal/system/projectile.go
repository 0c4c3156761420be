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

// ProjectileSystem moves projectiles, expires them and applies damage when
// one enters an entity with Health. Candidates come from the physics grid
// built in the previous PostUpdate.
// Phase 1 (Update).
type ProjectileSystem struct {
	world *ecs.World
	bus   *event.Bus
	grid  func() *spatial.Grid
	log   *zap.Logger
}

func NewProjectileSystem(world *ecs.World, bus *event.Bus, physics *PhysicsSystem, log *zap.Logger) *ProjectileSystem {
	return &ProjectileSystem{world: world, bus: bus, grid: physics.Grid, log: orNop(log)}
}

func (s *ProjectileSystem) Name() string         { return "projectile" }
func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ProjectileSystem) Update(dt time.Duration) error {
	sec := seconds(dt)
	grid := s.grid()
	return ecs.Each2(s.world, func(e ecs.Entity, p *component.Projectile, t *component.Transform) {
		if p.Lifetime <= 0 {
			return // already spent, waiting for cleanup
		}
		p.Lifetime -= sec
		if p.Lifetime <= 0 {
			s.world.MarkForDestruction(e)
			return
		}
		t.Position = t.Position.Add(p.Direction.Scale(p.Speed * sec))

		if target, ok := s.hit(e, p, t.Position, grid); ok {
			p.Lifetime = 0
			s.world.MarkForDestruction(e)
			s.log.Debug("projectile hit",
				zap.Stringer("projectile", e),
				zap.Stringer("target", target),
				zap.Float64("damage", p.Damage))
			s.bus.Publish(context.Background(), event.New(KindProjectileHit, event.CategoryGameplay,
				HitEvent{Projectile: e, Target: target, Damage: p.Damage}))
		}
	})
}

// hit finds the first living target whose collider contains pos and applies
// the projectile's damage to it.
func (s *ProjectileSystem) hit(e ecs.Entity, p *component.Projectile, pos spatial.Vec3, grid *spatial.Grid) (ecs.Entity, bool) {
	for _, target := range grid.Query(spatial.AABB{Center: pos}) {
		if target == e || target == p.Owner {
			continue
		}
		h, ok := ecs.TryGet[component.Health](s.world, target)
		if !ok || h.Dead {
			continue
		}
		c, ok := ecs.TryGet[component.Collider](s.world, target)
		if !ok || !c.Enabled {
			continue
		}
		tt, ok := ecs.TryGet[component.Transform](s.world, target)
		if !ok || !c.World(*tt).Contains(pos) {
			continue
		}
		h.Current -= p.Damage
		return target, true
	}
	return ecs.Null, false
}
