package system

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.log))
	copy(out, r.log)
	return out
}

type fakeSystem struct {
	name     string
	phase    Phase
	parallel bool
	rec      *recorder
	update   func() error
	initErr  error
}

func (f *fakeSystem) Name() string       { return f.name }
func (f *fakeSystem) Phase() Phase       { return f.phase }
func (f *fakeSystem) ParallelSafe() bool { return f.parallel }
func (f *fakeSystem) Shutdown()          { f.rec.add("shutdown:" + f.name) }

func (f *fakeSystem) Init() error {
	f.rec.add("init:" + f.name)
	return f.initErr
}

func (f *fakeSystem) Update(time.Duration) error {
	f.rec.add(f.name)
	if f.update != nil {
		return f.update()
	}
	return nil
}

func TestPhaseOrder(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 2)
	// Registered out of phase order on purpose.
	r.Register(&fakeSystem{name: "render", phase: PhaseRender, rec: rec})
	r.Register(&fakeSystem{name: "post", phase: PhasePostUpdate, rec: rec})
	r.Register(&fakeSystem{name: "pre", phase: PhasePreUpdate, rec: rec})
	r.Register(&fakeSystem{name: "update-1", phase: PhaseUpdate, rec: rec})
	r.Register(&fakeSystem{name: "prerender", phase: PhasePreRender, rec: rec})
	r.Register(&fakeSystem{name: "update-2", phase: PhaseUpdate, rec: rec})
	rec.log = nil

	if err := r.Tick(time.Millisecond); err != nil {
		t.Fatalf("tick: %v", err)
	}
	expected := []string{"pre", "update-1", "update-2", "post", "prerender", "render"}
	got := rec.snapshot()
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestInitRunsOnRegister(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 1)
	r.Register(&fakeSystem{name: "a", phase: PhaseUpdate, rec: rec})
	if got := rec.snapshot(); len(got) != 1 || got[0] != "init:a" {
		t.Errorf("Expected init before any tick, got %v", got)
	}

	boom := errors.New("boom")
	err := r.Register(&fakeSystem{name: "bad", phase: PhaseUpdate, rec: rec, initErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Expected init error, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Expected failing system to stay unregistered, got %d systems", r.Len())
	}
}

func TestRegisterRejectsInvalidPhase(t *testing.T) {
	r := NewRunner(nil, 1)
	if err := r.Register(&fakeSystem{name: "x", phase: Phase(9), rec: &recorder{}}); err == nil {
		t.Error("Expected invalid phase to be rejected")
	}
}

// A sequential system must see every write of the parallel systems of its
// phase.
func TestJoinBarrier(t *testing.T) {
	const writers = 8
	rec := &recorder{}
	r := NewRunner(nil, 4)

	var slots [writers]int64
	for i := 0; i < writers; i++ {
		i := i
		r.Register(&fakeSystem{name: "writer", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
			time.Sleep(time.Duration(i) * time.Millisecond)
			atomic.StoreInt64(&slots[i], int64(i+1))
			return nil
		}})
	}
	var observed [writers]int64
	r.Register(&fakeSystem{name: "reader", phase: PhaseUpdate, rec: rec, update: func() error {
		for i := range slots {
			observed[i] = atomic.LoadInt64(&slots[i])
		}
		return nil
	}})

	if err := r.Tick(time.Millisecond); err != nil {
		t.Fatalf("tick: %v", err)
	}
	for i, v := range observed {
		if v != int64(i+1) {
			t.Errorf("Slot %d: expected %d, got %d", i, i+1, v)
		}
	}
}

func TestPhasesDoNotOverlap(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 4)
	var updateDone atomic.Int32
	for i := 0; i < 4; i++ {
		r.Register(&fakeSystem{name: "update", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
			time.Sleep(2 * time.Millisecond)
			updateDone.Add(1)
			return nil
		}})
	}
	var seen int32
	r.Register(&fakeSystem{name: "post", phase: PhasePostUpdate, parallel: true, rec: rec, update: func() error {
		seen = updateDone.Load()
		return nil
	}})

	r.Tick(time.Millisecond)
	if seen != 4 {
		t.Errorf("Expected PostUpdate to start after all 4 Update systems, saw %d", seen)
	}
}

func TestParallelErrorSurfacesAfterJoin(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 4)
	boom := errors.New("boom")
	var finished atomic.Int32

	r.Register(&fakeSystem{name: "fails", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
		return boom
	}})
	for i := 0; i < 3; i++ {
		r.Register(&fakeSystem{name: "slow", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
			return nil
		}})
	}
	ranSequential := false
	r.Register(&fakeSystem{name: "seq", phase: PhaseUpdate, rec: rec, update: func() error {
		ranSequential = true
		return nil
	}})

	err := r.Tick(time.Millisecond)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if finished.Load() != 3 {
		t.Errorf("Expected all siblings joined before error, got %d finished", finished.Load())
	}
	if ranSequential {
		t.Error("Expected failing phase to skip its sequential systems")
	}
}

func TestPanicRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRunner(zap.New(core), 2)
	rec := &recorder{}
	var sibling atomic.Bool

	r.Register(&fakeSystem{name: "panics", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
		panic("bad state")
	}})
	r.Register(&fakeSystem{name: "ok", phase: PhaseUpdate, parallel: true, rec: rec, update: func() error {
		time.Sleep(2 * time.Millisecond)
		sibling.Store(true)
		return nil
	}})

	err := r.Tick(time.Millisecond)
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected PanicError, got %v", err)
	}
	if pe.System != "panics" || pe.Value != "bad state" {
		t.Errorf("Unexpected panic error %+v", pe)
	}
	if !sibling.Load() {
		t.Error("Expected sibling to complete")
	}
	if logs.FilterMessage("system panicked").Len() != 1 {
		t.Errorf("Expected 1 panic log, got %d", logs.FilterMessage("system panicked").Len())
	}
}

func TestSequentialErrorAbortsTick(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 1)
	boom := errors.New("boom")
	r.Register(&fakeSystem{name: "a", phase: PhaseUpdate, rec: rec, update: func() error { return boom }})
	r.Register(&fakeSystem{name: "b", phase: PhaseUpdate, rec: rec})
	r.Register(&fakeSystem{name: "c", phase: PhaseRender, rec: rec})
	rec.log = nil

	if err := r.Tick(time.Millisecond); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if got := rec.snapshot(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected only a to run, got %v", got)
	}
}

func TestLateRegisterIsScheduled(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 1)
	r.Register(&fakeSystem{name: "update", phase: PhaseUpdate, rec: rec})
	r.Tick(time.Millisecond)

	r.Register(&fakeSystem{name: "pre", phase: PhasePreUpdate, rec: rec})
	rec.log = nil
	r.Tick(time.Millisecond)

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "pre" || got[1] != "update" {
		t.Errorf("Expected [pre update] after late register, got %v", got)
	}
}

func TestTickPhase(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 1)
	r.Register(&fakeSystem{name: "pre", phase: PhasePreUpdate, rec: rec})
	r.Register(&fakeSystem{name: "update", phase: PhaseUpdate, rec: rec})
	rec.log = nil

	if err := r.TickPhase(PhasePreUpdate, time.Millisecond); err != nil {
		t.Fatalf("tick phase: %v", err)
	}
	if got := rec.snapshot(); len(got) != 1 || got[0] != "pre" {
		t.Errorf("Expected [pre], got %v", got)
	}
	if err := r.TickPhase(Phase(-1), time.Millisecond); err == nil {
		t.Error("Expected invalid phase error")
	}
}

func TestShutdownRegistrationOrder(t *testing.T) {
	rec := &recorder{}
	r := NewRunner(nil, 1)
	r.Register(&fakeSystem{name: "render", phase: PhaseRender, rec: rec})
	r.Register(&fakeSystem{name: "pre", phase: PhasePreUpdate, rec: rec})
	rec.log = nil

	r.Shutdown()
	got := rec.snapshot()
	if len(got) != 2 || got[0] != "shutdown:render" || got[1] != "shutdown:pre" {
		t.Errorf("Expected registration-order shutdown, got %v", got)
	}
	if r.Len() != 0 {
		t.Errorf("Expected systems released, got %d", r.Len())
	}
	rec.log = nil
	r.Tick(time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Error("Expected no updates after shutdown")
	}
}

type plain struct {
	Base
	calls int
}

func (p *plain) Update(time.Duration) error {
	p.calls++
	return nil
}

func TestBaseDefaults(t *testing.T) {
	p := &plain{}
	r := NewRunner(nil, 1)
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.TickPhase(PhaseUpdate, time.Millisecond); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Expected Base to default to PhaseUpdate, got %d calls", p.calls)
	}
}
