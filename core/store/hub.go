package store

import (
	"fmt"
	"sync"

	"github.com/trezcool/academia/core"
)

// Change operations
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change tells that something in Collection changed.
// It is a coarse invalidation signal, not a diff: no row payload is carried
// and subscribers are expected to re-fetch what they display.
type Change struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
}

// Feed delivers Changes per collection. Delivery is best-effort: changes happening while
// the transport is disconnected are lost, so subscribers pair a subscription with an initial fetch.
type Feed interface {
	Subscribe(collection string, fn func(Change)) Subscription
}

// Subscription is a handle on a Feed subscription.
type Subscription interface {
	// Unsubscribe stops deliveries; calling it more than once is a no-op.
	Unsubscribe()
}

// Hub fans changes out to every subscriber of the changed collection.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	nextID uint64
	logger core.Logger
}

var _ Feed = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		subs:   make(map[string][]*subscription),
		logger: logger,
	}
}

type subscription struct {
	id         uint64
	collection string
	fn         func(Change)
	hub        *Hub
	once       sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.hub.remove(s) })
}

func (h *Hub) Subscribe(collection string, fn func(Change)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscription{id: h.nextID, collection: collection, fn: fn, hub: h}
	h.subs[collection] = append(h.subs[collection], sub)
	return sub
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sub.collection]
	for i, s := range subs {
		if s.id == sub.id {
			// copy so that a concurrent Publish iterating the old slice is unaffected
			rest := make([]*subscription, 0, len(subs)-1)
			rest = append(rest, subs[:i]...)
			rest = append(rest, subs[i+1:]...)
			h.subs[sub.collection] = rest
			break
		}
	}
	if len(h.subs[sub.collection]) == 0 {
		delete(h.subs, sub.collection)
	}
}

// Subscribers returns the number of live subscriptions to collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}

// Publish calls every subscriber of ch.Collection, in subscription order.
func (h *Hub) Publish(ch Change) {
	h.mu.RLock()
	subs := h.subs[ch.Collection]
	h.mu.RUnlock()

	for _, sub := range subs {
		if h.subscribed(sub) {
			h.call(sub, ch)
		}
	}
}

// subscribed reports whether sub was not removed since Publish took its snapshot.
func (h *Hub) subscribed(sub *subscription) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs[sub.collection] {
		if s == sub {
			return true
		}
	}
	return false
}

func (h *Hub) call(sub *subscription, ch Change) {
	defer func() {
		if r := recover(); r != nil && h.logger != nil {
			h.logger.Error(fmt.Sprintf("change subscriber on %q panicked: %v", ch.Collection, r))
		}
	}()
	sub.fn(ch)
}
