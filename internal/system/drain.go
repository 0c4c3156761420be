package system

import (
	"context"
	"time"

	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
)

// EventDrainSystem delivers the events queued during the previous tick.
// Phase 0 (PreUpdate), registered first.
type EventDrainSystem struct {
	bus *event.Bus
}

func NewEventDrainSystem(bus *event.Bus) *EventDrainSystem {
	return &EventDrainSystem{bus: bus}
}

func (s *EventDrainSystem) Name() string         { return "event-drain" }
func (s *EventDrainSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDrainSystem) Update(_ time.Duration) error {
	s.bus.DrainQueue(context.Background())
	return nil
}
