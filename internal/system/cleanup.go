package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/ecs"
	coresys "github.com/l1jgo/simcore/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 2 (PostUpdate), registered after PhysicsSystem.
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: orNop(log)}
}

func (s *CleanupSystem) Name() string         { return "cleanup" }
func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CleanupSystem) Update(_ time.Duration) error {
	if n := s.world.FlushDestroyQueue(context.Background()); n > 0 {
		s.log.Debug("entities destroyed", zap.Int("count", n))
	}
	return nil
}
