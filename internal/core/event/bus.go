package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler receives an event. ctx carries the dispatch scope of the bus; pass it
// to any Publish made from inside the handler so the bus can detect re-entrancy.
type Handler func(ctx context.Context, ev *Event)

// SubscriptionID identifies a subscription. IDs are monotonic per bus.
type SubscriptionID uint64

type subscription struct {
	id   SubscriptionID
	mask Category // zero for kind subscriptions
	fn   Handler
}

type tiers [numPriorities][]subscription

// Stats counts dispatch activity since the last reset.
type Stats struct {
	Published uint64
	Handled   uint64
	Deferred  uint64
	ByKind    map[Kind]uint64
}

// dispatchKey marks a context as being inside a dispatch of bus b.
type dispatchKey struct{ b *Bus }

// Bus is a priority publish/subscribe channel with a deferred FIFO queue.
// One mutex guards subscriber tables, the queue and stats; it is never held
// while handlers run.
type Bus struct {
	mu         sync.Mutex
	nextID     SubscriptionID
	byKind     map[Kind]*tiers
	byCategory tiers
	queue      []*Event
	stats      Stats
	debug      bool
	log        *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		nextID: 1,
		byKind: make(map[Kind]*tiers),
		queue:  make([]*Event, 0, 64),
		stats:  Stats{ByKind: make(map[Kind]uint64)},
		log:    log,
	}
}

// SetDebug toggles per-dispatch debug logging.
func (b *Bus) SetDebug(enabled bool) {
	b.mu.Lock()
	b.debug = enabled
	b.mu.Unlock()
	if enabled {
		b.log.Debug("event bus debug mode enabled")
	}
}

// Subscribe registers fn for events of the given kind.
func (b *Bus) Subscribe(kind Kind, priority Priority, fn Handler) SubscriptionID {
	priority = clampPriority(priority)
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	t := b.byKind[kind]
	if t == nil {
		t = &tiers{}
		b.byKind[kind] = t
	}
	t[priority] = append(t[priority], subscription{id: id, fn: fn})

	if b.debug {
		b.log.Debug("subscribed",
			zap.Stringer("kind", kind),
			zap.Stringer("priority", priority),
			zap.Uint64("id", uint64(id)))
	}
	return id
}

// SubscribeCategory registers fn for every event whose category intersects mask.
// Category subscribers run after all kind subscribers.
func (b *Bus) SubscribeCategory(mask Category, priority Priority, fn Handler) SubscriptionID {
	priority = clampPriority(priority)
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.byCategory[priority] = append(b.byCategory[priority], subscription{id: id, mask: mask, fn: fn})

	if b.debug {
		b.log.Debug("subscribed to category",
			zap.Uint32("mask", uint32(mask)),
			zap.Stringer("priority", priority),
			zap.Uint64("id", uint64(id)))
	}
	return id
}

// Unsubscribe removes the subscription with the given id, whether kind or
// category based. It reports whether anything was removed.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := false
	for kind, t := range b.byKind {
		if removeFrom(t, id) {
			removed = true
			if t.empty() {
				delete(b.byKind, kind)
			}
			break
		}
	}
	if !removed {
		removed = removeFrom(&b.byCategory, id)
	}
	if removed && b.debug {
		b.log.Debug("unsubscribed", zap.Uint64("id", uint64(id)))
	}
	return removed
}

// Publish dispatches ev synchronously: kind subscribers High, Normal, Low in
// subscription order, then category subscribers in the same order. Dispatch
// stops at the first handler that sets ev.Handled.
//
// A Publish whose ctx comes from a handler currently dispatching on this bus is
// deferred to the queue and delivered by the next DrainQueue. An event that
// is already Handled is dropped.
func (b *Bus) Publish(ctx context.Context, ev *Event) {
	if ev == nil || ev.Handled {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if b.Dispatching(ctx) {
		b.mu.Lock()
		b.queue = append(b.queue, ev)
		b.stats.Deferred++
		debug := b.debug
		b.mu.Unlock()
		if debug {
			b.log.Debug("re-entrant publish deferred", zap.Stringer("kind", ev.Kind))
		}
		return
	}

	b.mu.Lock()
	b.stats.Published++
	b.stats.ByKind[ev.Kind]++
	handlers := b.collect(ev)
	debug := b.debug
	b.mu.Unlock()

	if debug {
		b.log.Debug("publishing", zap.Stringer("kind", ev.Kind), zap.Int("subscribers", len(handlers)))
	}

	dctx := context.WithValue(ctx, dispatchKey{b}, true)
	for _, sub := range handlers {
		sub.fn(dctx, ev)
		if ev.Handled {
			b.mu.Lock()
			b.stats.Handled++
			b.mu.Unlock()
			if debug {
				b.log.Debug("handled", zap.Stringer("kind", ev.Kind), zap.Uint64("id", uint64(sub.id)))
			}
			return
		}
	}
}

// Dispatching reports whether ctx belongs to a handler invoked by this bus.
func (b *Bus) Dispatching(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	return ctx.Value(dispatchKey{b}) != nil
}

// Queue stores ev for the next DrainQueue. Safe for concurrent use.
func (b *Bus) Queue(ev *Event) {
	if ev == nil {
		return
	}
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	debug := b.debug
	b.mu.Unlock()
	if debug {
		b.log.Debug("queued", zap.Stringer("kind", ev.Kind))
	}
}

// DrainQueue takes the current queue and publishes its events in FIFO order.
// Events queued while draining land in a fresh queue and wait for the next call.
// It returns the number of events taken.
func (b *Bus) DrainQueue(ctx context.Context) int {
	b.mu.Lock()
	pending := b.queue
	b.queue = make([]*Event, 0, cap(pending))
	b.mu.Unlock()

	if ctx == nil || b.Dispatching(ctx) {
		// Draining from a handler would immediately re-defer everything.
		ctx = context.Background()
	}
	for _, ev := range pending {
		b.Publish(ctx, ev)
	}
	return len(pending)
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Stats returns a copy of the dispatch counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.stats
	out.ByKind = make(map[Kind]uint64, len(b.stats.ByKind))
	for k, v := range b.stats.ByKind {
		out.ByKind[k] = v
	}
	return out
}

func (b *Bus) ResetStats() {
	b.mu.Lock()
	b.stats = Stats{ByKind: make(map[Kind]uint64)}
	debug := b.debug
	b.mu.Unlock()
	if debug {
		b.log.Debug("event stats reset")
	}
}

// SubscriberCount returns the number of kind subscribers for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.byKind[kind]
	if t == nil {
		return 0
	}
	return t.len()
}

// CategorySubscriberCount returns the number of category subscribers.
func (b *Bus) CategorySubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byCategory.len()
}

// collect builds the ordered handler list for ev. Caller holds b.mu.
func (b *Bus) collect(ev *Event) []subscription {
	var out []subscription
	if t := b.byKind[ev.Kind]; t != nil {
		out = make([]subscription, 0, t.len())
		for p := range t {
			out = append(out, t[p]...)
		}
	}
	for p := range b.byCategory {
		for _, sub := range b.byCategory[p] {
			if ev.Category&sub.mask != 0 {
				out = append(out, sub)
			}
		}
	}
	return out
}

func removeFrom(t *tiers, id SubscriptionID) bool {
	for p := range t {
		subs := t[p]
		for i := range subs {
			if subs[i].id == id {
				t[p] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (t *tiers) len() int {
	n := 0
	for p := range t {
		n += len(t[p])
	}
	return n
}

func (t *tiers) empty() bool { return t.len() == 0 }

func clampPriority(p Priority) Priority {
	if !p.valid() {
		return PriorityNormal
	}
	return p
}
