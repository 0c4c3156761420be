package input

import (
	"fmt"
	"sync"
)

// Action is a logical input bound to some key or button by the platform layer.
type Action uint8

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionFire

	numActions
)

var actionNames = [numActions]string{"MoveForward", "MoveBackward", "MoveLeft", "MoveRight", "Jump", "Fire"}

func (a Action) String() string {
	if a < numActions {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// ParseAction maps a configured action name to its Action.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// Actions is a set of actions.
type Actions uint32

func (s Actions) Has(a Action) bool        { return s&(1<<a) != 0 }
func (s Actions) With(a Action) Actions    { return s | 1<<a }
func (s Actions) Without(a Action) Actions { return s &^ (1 << a) }

// Each calls fn for every action in s in enum order.
func (s Actions) Each(fn func(Action)) {
	for a := Action(0); a < numActions; a++ {
		if s.Has(a) {
			fn(a)
		}
	}
}

// State is one poll of the input source: which actions are held and how far
// the pointer moved since the previous poll.
type State struct {
	Down   Actions
	LookDX float64
	LookDY float64
}

// Source feeds input into the simulation once per tick.
type Source interface {
	Poll() State
}

// ActionEvent is the payload of KeyPressed and KeyReleased events.
type ActionEvent struct {
	Action Action
}

// Static is a Source driven by code: tests, scripted demos, or a platform
// layer that pushes state from its own goroutine.
type Static struct {
	mu    sync.Mutex
	state State
}

func (s *Static) Press(a Action) {
	s.mu.Lock()
	s.state.Down = s.state.Down.With(a)
	s.mu.Unlock()
}

func (s *Static) Release(a Action) {
	s.mu.Lock()
	s.state.Down = s.state.Down.Without(a)
	s.mu.Unlock()
}

// Look accumulates pointer movement until the next Poll.
func (s *Static) Look(dx, dy float64) {
	s.mu.Lock()
	s.state.LookDX += dx
	s.state.LookDY += dy
	s.mu.Unlock()
}

// Poll returns the current state and resets the look deltas.
func (s *Static) Poll() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	s.state.LookDX, s.state.LookDY = 0, 0
	return st
}
