package system

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PanicError wraps a panic recovered from a system's Update.
type PanicError struct {
	System string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("system %s panicked: %v", e.System, e.Value)
}

type entry struct {
	sys      System
	name     string
	phase    Phase
	parallel bool
}

type stage struct {
	parallel   []entry
	sequential []entry
}

// Runner executes systems in phase order each tick. Within a phase the
// parallel-safe systems run on an errgroup and are joined before the
// sequential systems run in registration order.
type Runner struct {
	mu      sync.Mutex
	systems []entry // registration order
	plan    [numPhases]stage
	dirty   bool
	workers int
	log     *zap.Logger
}

// NewRunner creates a Runner. workers bounds concurrent parallel systems;
// zero or less means GOMAXPROCS.
func NewRunner(log *zap.Logger, workers int) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		systems: make([]entry, 0, 16),
		workers: workers,
		log:     log,
	}
}

// Register initialises s and adds it to the schedule. Phase and the
// parallel flag are read once here. A failing Init leaves s unregistered.
func (r *Runner) Register(s System) error {
	e := entry{sys: s, name: nameOf(s), phase: s.Phase()}
	if !e.phase.valid() {
		return fmt.Errorf("register %s: invalid phase %d", e.name, int(e.phase))
	}
	if p, ok := s.(Parallel); ok {
		e.parallel = p.ParallelSafe()
	}
	if in, ok := s.(Initializer); ok {
		if err := in.Init(); err != nil {
			return fmt.Errorf("init %s: %w", e.name, err)
		}
	}

	r.mu.Lock()
	r.systems = append(r.systems, e)
	r.dirty = true
	r.mu.Unlock()

	r.log.Debug("system registered",
		zap.String("system", e.name),
		zap.Stringer("phase", e.phase),
		zap.Bool("parallel", e.parallel))
	return nil
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.systems)
}

// Tick runs every phase in order. It stops at the first phase that fails.
func (r *Runner) Tick(dt time.Duration) error {
	plan := r.currentPlan()
	for _, p := range Phases {
		if err := r.runStage(p, plan[p], dt); err != nil {
			return err
		}
	}
	return nil
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) error {
	if !phase.valid() {
		return fmt.Errorf("tick phase: invalid phase %d", int(phase))
	}
	plan := r.currentPlan()
	return r.runStage(phase, plan[phase], dt)
}

// Shutdown tears systems down in registration order and releases them.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	systems := r.systems
	r.systems = nil
	r.plan = [numPhases]stage{}
	r.dirty = false
	r.mu.Unlock()

	for _, e := range systems {
		if sd, ok := e.sys.(Shutdowner); ok {
			sd.Shutdown()
		}
	}
	r.log.Debug("systems shut down", zap.Int("count", len(systems)))
}

// currentPlan rebuilds the phase plan when the system set changed and
// returns a copy the caller can run without holding mu, so systems may
// register further systems from Update.
func (r *Runner) currentPlan() [numPhases]stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty {
		r.rebuild()
		r.dirty = false
	}
	return r.plan
}

// rebuild groups systems per phase. The stable sort keeps registration
// order within a phase. Caller holds mu.
func (r *Runner) rebuild() {
	ordered := make([]entry, len(r.systems))
	copy(ordered, r.systems)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].phase < ordered[j].phase
	})

	var plan [numPhases]stage
	for _, e := range ordered {
		st := &plan[e.phase]
		if e.parallel {
			st.parallel = append(st.parallel, e)
		} else {
			st.sequential = append(st.sequential, e)
		}
	}
	r.plan = plan
}

func (r *Runner) runStage(phase Phase, st stage, dt time.Duration) error {
	switch len(st.parallel) {
	case 0:
	case 1:
		// Nothing to fork.
		if err := r.run(st.parallel[0], dt); err != nil {
			return fmt.Errorf("phase %s: %w", phase, err)
		}
	default:
		var g errgroup.Group
		g.SetLimit(r.workers)
		for _, e := range st.parallel {
			e := e
			g.Go(func() error { return r.run(e, dt) })
		}
		// Wait joins every sibling before any error is surfaced.
		if err := g.Wait(); err != nil {
			return fmt.Errorf("phase %s: %w", phase, err)
		}
	}

	for _, e := range st.sequential {
		if err := r.run(e, dt); err != nil {
			return fmt.Errorf("phase %s: %w", phase, err)
		}
	}
	return nil
}

func (r *Runner) run(e entry, dt time.Duration) (err error) {
	defer func() {
		if v := recover(); v != nil {
			pe := &PanicError{System: e.name, Value: v, Stack: debug.Stack()}
			r.log.Error("system panicked",
				zap.String("system", e.name),
				zap.Any("panic", v),
				zap.ByteString("stack", pe.Stack))
			err = pe
		}
	}()
	if err := e.sys.Update(dt); err != nil {
		r.log.Error("system failed", zap.String("system", e.name), zap.Error(err))
		return fmt.Errorf("%s: %w", e.name, err)
	}
	return nil
}

func nameOf(s System) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
