package ecs

import "github.com/l1jgo/simcore/internal/core/event"

// ComponentEvent is the payload of KindComponentAdded and KindComponentRemoved.
type ComponentEvent struct {
	Entity Entity
	Type   TypeID
	Name   string
}

// EntityEvent is the payload of KindEntityDestroyed.
type EntityEvent struct {
	Entity Entity
}

func componentEvent(kind event.Kind, e Entity, s AnyStore) *event.Event {
	return event.New(kind, event.CategoryECS, ComponentEvent{Entity: e, Type: s.TypeID(), Name: s.Name()})
}
