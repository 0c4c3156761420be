package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/spatial"
)

// WeaponSystem ticks weapon cooldowns and fires hitscan shots for entities
// holding fire. The ray starts at the eye (Camera.EyeHeight above the
// transform) and follows the view yaw and pitch. The physics grid gives the
// candidates; the nearest living collider along the ray takes the damage.
// Phase 1 (Update).
type WeaponSystem struct {
	world *ecs.World
	bus   *event.Bus
	grid  func() *spatial.Grid
	log   *zap.Logger
}

// targets are the stores the narrow phase reads.
type targets struct {
	health    *ecs.Store[component.Health]
	colliders *ecs.Store[component.Collider]
	transform *ecs.Store[component.Transform]
}

func NewWeaponSystem(world *ecs.World, bus *event.Bus, physics *PhysicsSystem, log *zap.Logger) *WeaponSystem {
	return &WeaponSystem{world: world, bus: bus, grid: physics.Grid, log: orNop(log)}
}

func (s *WeaponSystem) Name() string         { return "weapon" }
func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WeaponSystem) Update(dt time.Duration) error {
	sec := seconds(dt)
	grid := s.grid()
	inputs, err := ecs.StoreOf[component.Input](s.world)
	if err != nil {
		return err
	}
	controllers, err := ecs.StoreOf[component.PlayerController](s.world)
	if err != nil {
		return err
	}
	cams, err := ecs.StoreOf[component.Camera](s.world)
	if err != nil {
		return err
	}
	var tg targets
	if tg.health, err = ecs.StoreOf[component.Health](s.world); err != nil {
		return err
	}
	if tg.colliders, err = ecs.StoreOf[component.Collider](s.world); err != nil {
		return err
	}
	if tg.transform, err = ecs.StoreOf[component.Transform](s.world); err != nil {
		return err
	}

	return ecs.Each2(s.world, func(e ecs.Entity, wp *component.Weapon, t *component.Transform) {
		if wp.SinceLastShot < wp.FireRate {
			wp.SinceLastShot = min(wp.SinceLastShot+sec, wp.FireRate)
		}
		in, ok := inputs.Value(e)
		if !ok || !in.Down.Has(input.ActionFire) || !wp.Ready() {
			return
		}
		wp.SinceLastShot = 0
		wp.Ammo--

		origin := t.Position
		if c, ok := cams.Value(e); ok {
			origin = origin.Add(spatial.V(0, c.EyeHeight, 0))
		}
		var pitch float64
		if pc, ok := controllers.Value(e); ok {
			pitch = pc.Pitch
		}
		dir := forward(t.Rotation.Y, pitch)

		target, dist, ok := tg.trace(e, origin, dir, wp.Range, grid)
		if !ok {
			s.log.Debug("shot missed", zap.Stringer("shooter", e), zap.Int("ammo", wp.Ammo))
			return
		}
		tg.health.Update(target, func(h *component.Health) { h.Current -= wp.Damage })
		s.log.Debug("shot hit",
			zap.Stringer("shooter", e),
			zap.Stringer("target", target),
			zap.Float64("damage", wp.Damage),
			zap.Float64("distance", dist),
			zap.Int("ammo", wp.Ammo))
		s.bus.Publish(context.Background(), event.New(KindWeaponHit, event.CategoryGameplay,
			ShotEvent{Shooter: e, Target: target, Damage: wp.Damage, Distance: dist}))
	})
}

// trace returns the nearest living target whose enabled collider the ray
// enters within maxDist. Equal distances go to the lower entity ID.
func (tg targets) trace(shooter ecs.Entity, origin, dir spatial.Vec3, maxDist float64, grid *spatial.Grid) (ecs.Entity, float64, bool) {
	best, bestDist, found := ecs.Null, 0.0, false
	for _, target := range grid.Raycast(origin, dir, maxDist) {
		if target == shooter {
			continue
		}
		h, ok := tg.health.Value(target)
		if !ok || h.Dead {
			continue
		}
		c, ok := tg.colliders.Value(target)
		if !ok || !c.Enabled {
			continue
		}
		tt, ok := tg.transform.Value(target)
		if !ok {
			continue
		}
		d, ok := c.World(tt).RayIntersect(origin, dir, maxDist)
		if !ok {
			continue
		}
		if !found || d < bestDist || (d == bestDist && target.ID < best.ID) {
			best, bestDist, found = target, d, true
		}
	}
	return best, bestDist, found
}
