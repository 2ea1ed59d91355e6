package app

import (
	"sort"
	"sync"

	"github.com/hylla/workboard/internal/domain"
)

// ChangeKind names what part of the board state changed.
type ChangeKind string

// ChangeKind values published to subscribers.
const (
	ChangeLoaded ChangeKind = "loaded"
	ChangeOrders ChangeKind = "orders"
	ChangeZoom   ChangeKind = "zoom"
	ChangePanel  ChangeKind = "panel"
	ChangeToast  ChangeKind = "toast"
	ChangeMenu   ChangeKind = "menu"
	ChangeHover  ChangeKind = "hover"
	ChangeScroll ChangeKind = "scroll"
)

// Change is one notification delivered to subscribers.
type Change struct {
	Kind      ChangeKind
	Operation domain.ChangeOperation
	OrderID   string
}

// registry is a callback registry. Callbacks run outside the registry lock.
type registry struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Change)
}

// subscribe registers fn and returns a function that removes it.
func (r *registry) subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs == nil {
		r.subs = map[int]func(Change){}
	}
	id := r.next
	r.next++
	r.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// publish delivers change to every subscriber in registration order.
func (r *registry) publish(change Change) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.subs[id])
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}
