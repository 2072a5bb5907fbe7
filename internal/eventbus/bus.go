// Package eventbus implements the typed publish/subscribe bus of spec
// §4.13: handlers register for a named event with a priority (higher
// fires first) and an optional once flag; publish iterates a snapshot
// sorted once at registration time, and a handler's panic or error never
// aborts the remaining handlers for that publish.
package eventbus

import (
	"log/slog"
	"sort"
	"sync"
)

// Handler receives a published event payload. Any type may be published;
// handlers registered for a name should agree on the payload's concrete
// type and type-assert it.
type Handler func(payload any)

type subscription struct {
	id       uint64
	priority int
	once     bool
	fn       Handler
}

// Bus is a typed, priority-ordered, panic-isolated pub/sub dispatcher.
type Bus struct {
	log *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	subs    map[string][]*subscription
	ordered map[string][]*subscription // cached, sorted snapshot per name
}

// New builds an empty Bus. log may be nil.
func New(log *slog.Logger) *Bus {
	return &Bus{
		log:     log,
		subs:    make(map[string][]*subscription),
		ordered: make(map[string][]*subscription),
	}
}

// SubscriptionID identifies a registered handler for later Unsubscribe.
type SubscriptionID uint64

// Subscribe registers fn for name at the given priority; higher priority
// handlers fire first. Ties break by registration order.
func (b *Bus) Subscribe(name string, priority int, fn Handler) SubscriptionID {
	return b.subscribe(name, priority, false, fn)
}

// Once registers fn for name to fire at most once, then auto-unsubscribe.
func (b *Bus) Once(name string, priority int, fn Handler) SubscriptionID {
	return b.subscribe(name, priority, true, fn)
}

func (b *Bus) subscribe(name string, priority int, once bool, fn Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscription{id: b.nextID, priority: priority, once: once, fn: fn}
	b.subs[name] = append(b.subs[name], sub)
	b.resort(name)
	return SubscriptionID(sub.id)
}

// Unsubscribe removes the handler registered under id, if present.
func (b *Bus) Unsubscribe(name string, id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(name, uint64(id))
}

func (b *Bus) removeLocked(name string, id uint64) {
	list := b.subs[name]
	for i, s := range list {
		if s.id == id {
			b.subs[name] = append(list[:i], list[i+1:]...)
			b.resort(name)
			return
		}
	}
}

// resort rebuilds the cached, priority-sorted snapshot for name. Must be
// called with mu held.
func (b *Bus) resort(name string) {
	list := append([]*subscription(nil), b.subs[name]...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
	b.ordered[name] = list
}

// Publish fires every handler registered for name, highest priority
// first, against a snapshot taken at call time: handlers added or removed
// during this Publish never affect it. A handler panic is recovered and
// logged; remaining handlers still run.
func (b *Bus) Publish(name string, payload any) {
	b.mu.Lock()
	snapshot := b.ordered[name]
	b.mu.Unlock()

	var onceIDs []uint64
	for _, sub := range snapshot {
		b.invoke(sub, payload)
		if sub.once {
			onceIDs = append(onceIDs, sub.id)
		}
	}
	if len(onceIDs) > 0 {
		b.mu.Lock()
		for _, id := range onceIDs {
			b.removeLocked(name, id)
		}
		b.mu.Unlock()
	}
}

func (b *Bus) invoke(sub *subscription, payload any) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.Error("eventbus handler panicked", "recovered", r)
		}
	}()
	sub.fn(payload)
}
