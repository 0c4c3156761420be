package event

import "sync"

// Guard owns one subscription and releases it exactly once. Systems keep guards
// from Init and release them in Shutdown, or defer Release in a narrower scope.
type Guard struct {
	bus  *Bus
	id   SubscriptionID
	once sync.Once
}

// SubscribeGuarded is Subscribe returning a Guard.
func (b *Bus) SubscribeGuarded(kind Kind, priority Priority, fn Handler) *Guard {
	return &Guard{bus: b, id: b.Subscribe(kind, priority, fn)}
}

// SubscribeCategoryGuarded is SubscribeCategory returning a Guard.
func (b *Bus) SubscribeCategoryGuarded(mask Category, priority Priority, fn Handler) *Guard {
	return &Guard{bus: b, id: b.SubscribeCategory(mask, priority, fn)}
}

func (g *Guard) ID() SubscriptionID { return g.id }

// Release unsubscribes. Further calls are no-ops; a nil Guard is allowed.
func (g *Guard) Release() {
	if g == nil || g.bus == nil {
		return
	}
	g.once.Do(func() {
		g.bus.Unsubscribe(g.id)
	})
}

// Guards releases a set of subscriptions together.
type Guards []*Guard

func (gs *Guards) Add(g *Guard) { *gs = append(*gs, g) }

// Release releases every guard and empties the set.
func (gs *Guards) Release() {
	for _, g := range *gs {
		g.Release()
	}
	*gs = (*gs)[:0]
}
