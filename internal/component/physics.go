package component

import "github.com/l1jgo/simcore/internal/spatial"

// Physics holds the motion state integrated by PhysicsSystem.
// A zero MaxFallSpeed means no fall limit.
type Physics struct {
	Velocity     spatial.Vec3
	Acceleration spatial.Vec3

	Mass                float64
	Drag                float64 // horizontal damping per second
	GravityAcceleration float64
	MaxFallSpeed        float64 // negative; vertical velocity floor

	UseGravity      bool
	CheckCollisions bool
	Grounded        bool
}

func NewPhysics() Physics {
	return Physics{
		Mass:                1,
		GravityAcceleration: -15,
		MaxFallSpeed:        -15,
		UseGravity:          true,
		CheckCollisions:     true,
	}
}

// Collider is a collision volume in local space.
type Collider struct {
	Local   spatial.AABB
	Enabled bool
}

func NewCollider(extents spatial.Vec3) Collider {
	return Collider{Local: spatial.AABB{Extents: extents}, Enabled: true}
}

// World returns the collider's box placed by t. The local center offset and
// the extents are both scaled per axis.
func (c Collider) World(t Transform) spatial.AABB {
	return spatial.AABB{
		Center:  t.Position.Add(c.Local.Center.Mul(t.Scale)),
		Extents: c.Local.Extents.Mul(t.Scale).Abs(),
	}
}
