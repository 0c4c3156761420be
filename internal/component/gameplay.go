package component

import (
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/spatial"
)

// Health tracks hit points. RegenRate is points per second.
type Health struct {
	Current   float64
	Max       float64
	RegenRate float64
	Dead      bool
}

func NewHealth(maxHP float64) Health {
	return Health{Current: maxHP, Max: maxHP}
}

// Projectile moves along Direction at Speed until Lifetime runs out or it
// enters an entity with Health.
type Projectile struct {
	Direction spatial.Vec3
	Speed     float64
	Damage    float64
	Lifetime  float64 // seconds left
	Owner     ecs.Entity
}

// Script binds an entity to a Lua behaviour function.
type Script struct {
	Behaviour string
	Params    map[string]float64
}

// Weapon is a hitscan gun fired from the eye along the view direction.
// FireRate is the minimum seconds between shots; SinceLastShot counts up to
// it and stops there.
type Weapon struct {
	FireRate      float64
	SinceLastShot float64
	Ammo          int
	MaxAmmo       int
	Damage        float64
	Range         float64
}

func NewWeapon() Weapon {
	return Weapon{FireRate: 0.2, SinceLastShot: 0.2, Ammo: 30, MaxAmmo: 30, Damage: 10, Range: 100}
}

// Ready reports whether the cooldown has elapsed and a round is loaded.
func (w Weapon) Ready() bool {
	return w.SinceLastShot >= w.FireRate && w.Ammo > 0
}
