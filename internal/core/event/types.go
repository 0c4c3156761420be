package event

import "fmt"

// Kind identifies what happened. Built-in kinds cover ECS lifecycle and input;
// applications allocate their own kinds starting at KindUser.
type Kind uint32

const (
	KindNone Kind = iota

	// ECS lifecycle
	KindComponentAdded
	KindComponentRemoved
	KindEntityDestroyed

	// Input
	KindKeyPressed
	KindKeyReleased
	KindMouseMoved
	KindMouseButtonPressed
	KindMouseButtonReleased

	// KindUser is the first kind free for application use.
	KindUser Kind = 1000
)

var kindNames = map[Kind]string{
	KindNone:                "None",
	KindComponentAdded:      "ComponentAdded",
	KindComponentRemoved:    "ComponentRemoved",
	KindEntityDestroyed:     "EntityDestroyed",
	KindKeyPressed:          "KeyPressed",
	KindKeyReleased:         "KeyReleased",
	KindMouseMoved:          "MouseMoved",
	KindMouseButtonPressed:  "MouseButtonPressed",
	KindMouseButtonReleased: "MouseButtonReleased",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k >= KindUser {
		return fmt.Sprintf("User(%d)", uint32(k-KindUser))
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Category is a bitmask grouping kinds so a subscriber can listen to a whole
// family without enumerating it.
type Category uint32

const (
	CategoryECS Category = 1 << iota
	CategoryInput
	CategoryKeyboard
	CategoryMouse
	CategoryMouseButton
	CategoryGameplay
)

// Event is a tagged payload. Handled is set by a subscriber to stop dispatch.
type Event struct {
	Kind     Kind
	Category Category
	Payload  any
	Handled  bool
}

func New(kind Kind, category Category, payload any) *Event {
	return &Event{Kind: kind, Category: category, Payload: payload}
}

// In reports whether the event belongs to any category in mask.
func (e *Event) In(mask Category) bool {
	return e.Category&mask != 0
}

// Priority orders subscribers within a dispatch. Lower value runs first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow

	numPriorities = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityNormal:
		return "Normal"
	case PriorityLow:
		return "Low"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}
