package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
)

// Gameplay event kinds.
const (
	KindEntityDied event.Kind = event.KindUser + iota + 1
	KindProjectileHit
	KindWeaponHit
)

// DeathEvent is queued by HealthSystem when an entity's health reaches zero.
type DeathEvent struct {
	Entity ecs.Entity
}

// HitEvent is published by ProjectileSystem when a projectile strikes.
type HitEvent struct {
	Projectile ecs.Entity
	Target     ecs.Entity
	Damage     float64
}

// ShotEvent is published by WeaponSystem when a shot lands. Distance is
// measured from the shooter's eye to the target's collider.
type ShotEvent struct {
	Shooter  ecs.Entity
	Target   ecs.Entity
	Damage   float64
	Distance float64
}

func seconds(dt time.Duration) float64 { return dt.Seconds() }

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
