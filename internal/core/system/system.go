package system

import (
	"fmt"
	"time"
)

// Phase defines execution ordering within a single tick. The ordinal values
// are the execution order.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: drain deferred events, poll input
	PhaseUpdate                  // 1: gameplay logic
	PhasePostUpdate              // 2: physics, destroy queued entities
	PhasePreRender               // 3: camera, render cache
	PhaseRender                  // 4: hand instances to the renderer

	numPhases = 5
)

// Phases lists every phase in execution order.
var Phases = [numPhases]Phase{PhasePreUpdate, PhaseUpdate, PhasePostUpdate, PhasePreRender, PhaseRender}

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "PreUpdate"
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	case PhasePreRender:
		return "PreRender"
	case PhaseRender:
		return "Render"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) valid() bool { return p >= PhasePreUpdate && p <= PhaseRender }

// System is the interface every ECS system implements. Update returns an
// error only for failures that should abort the tick; per-entity problems
// are skipped by the system itself.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}

// Initializer systems are initialised by Runner.Register before any Update.
type Initializer interface {
	Init() error
}

// Shutdowner systems are torn down by Runner.Shutdown in registration order.
type Shutdowner interface {
	Shutdown()
}

// Parallel systems reporting true run concurrently with the other parallel
// systems of their phase. Whoever marks a system parallel-safe guarantees it
// does not write a component type a sibling reads or writes.
type Parallel interface {
	ParallelSafe() bool
}

// Named systems are identified by name in logs and errors.
type Named interface {
	Name() string
}

// Base supplies the defaults: phase Update, sequential. Embed it and
// override what differs.
type Base struct{}

func (Base) Phase() Phase { return PhaseUpdate }
