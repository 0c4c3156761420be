package system

import (
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/spatial"
)

// PhysicsConfig bounds the integration step.
type PhysicsConfig struct {
	MinDelta time.Duration
	MaxDelta time.Duration
	CellSize float64
}

func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		MinDelta: 100 * time.Microsecond,
		MaxDelta: 100 * time.Millisecond,
		CellSize: spatial.DefaultCellSize,
	}
}

// PhysicsSystem rebuilds the spatial grid from enabled colliders, integrates
// gravity, drag and velocity, then pushes colliding bodies apart along the
// axis of least penetration.
// Phase 2 (PostUpdate).
type PhysicsSystem struct {
	world *ecs.World
	cfg   PhysicsConfig
	grid  *spatial.Grid
}

func NewPhysicsSystem(world *ecs.World, cfg PhysicsConfig) *PhysicsSystem {
	if cfg.MaxDelta <= 0 {
		cfg.MaxDelta = DefaultPhysicsConfig().MaxDelta
	}
	if cfg.MinDelta <= 0 || cfg.MinDelta > cfg.MaxDelta {
		cfg.MinDelta = min(DefaultPhysicsConfig().MinDelta, cfg.MaxDelta)
	}
	return &PhysicsSystem{world: world, cfg: cfg, grid: spatial.NewGrid(cfg.CellSize)}
}

func (s *PhysicsSystem) Name() string         { return "physics" }
func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Grid is the broad-phase index built by the last Update. Other systems may
// query it outside PostUpdate.
func (s *PhysicsSystem) Grid() *spatial.Grid { return s.grid }

// Clamp limits dt to the configured range.
func (s *PhysicsSystem) Clamp(dt time.Duration) time.Duration {
	return max(s.cfg.MinDelta, min(dt, s.cfg.MaxDelta))
}

func (s *PhysicsSystem) Update(dt time.Duration) error {
	sec := seconds(s.Clamp(dt))

	if err := s.rebuildGrid(); err != nil {
		return err
	}
	return ecs.Each2(s.world, func(e ecs.Entity, ph *component.Physics, t *component.Transform) {
		if ph.UseGravity {
			ph.Velocity.Y += ph.GravityAcceleration * sec
		}
		drag := max(1-ph.Drag*sec, 0)
		ph.Velocity.X *= drag
		ph.Velocity.Z *= drag
		if ph.MaxFallSpeed < 0 && ph.Velocity.Y < ph.MaxFallSpeed {
			ph.Velocity.Y = ph.MaxFallSpeed
		}
		t.Position = t.Position.Add(ph.Velocity.Scale(sec))

		if ph.CheckCollisions {
			s.resolve(e, t, ph)
		}
	})
}

func (s *PhysicsSystem) rebuildGrid() error {
	s.grid.Clear()
	return ecs.Each2(s.world, func(e ecs.Entity, c *component.Collider, t *component.Transform) {
		if c.Enabled {
			s.grid.Insert(e, c.World(*t))
		}
	})
}

// resolve pushes e out of every enabled collider it overlaps and sets the
// grounded flag when it comes to rest on top of something.
func (s *PhysicsSystem) resolve(e ecs.Entity, t *component.Transform, ph *component.Physics) {
	c, ok := ecs.TryGet[component.Collider](s.world, e)
	if !ok || !c.Enabled {
		return
	}
	ph.Grounded = false

	for _, other := range s.grid.Query(c.World(*t)) {
		if other == e {
			continue
		}
		oc, ok := ecs.TryGet[component.Collider](s.world, other)
		if !ok || !oc.Enabled {
			continue
		}
		ot, ok := ecs.TryGet[component.Transform](s.world, other)
		if !ok {
			continue
		}
		mine, theirs := c.World(*t), oc.World(*ot)
		if !mine.Intersects(theirs) {
			continue
		}

		pen := mine.Penetration(theirs)
		switch {
		case pen.X < pen.Y && pen.X < pen.Z:
			if mine.Center.X < theirs.Center.X {
				t.Position.X -= pen.X
			} else {
				t.Position.X += pen.X
			}
			ph.Velocity.X = 0
		case pen.Y < pen.Z:
			if mine.Center.Y < theirs.Center.Y {
				t.Position.Y -= pen.Y
			} else {
				t.Position.Y += pen.Y
				ph.Grounded = true
			}
			ph.Velocity.Y = 0
		default:
			if mine.Center.Z < theirs.Center.Z {
				t.Position.Z -= pen.Z
			} else {
				t.Position.Z += pen.Z
			}
			ph.Velocity.Z = 0
		}
	}
}
