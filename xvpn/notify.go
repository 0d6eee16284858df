package xvpn

import (
	"sync"

	"github.com/google/uuid"
)

// Category classifies the notifications the client raises toward
// consumers (workflow waits, the CLI, the watch view).
type Category string

const (
	// CategoryConnected fires once when the helper completes its handshake.
	CategoryConnected Category = "connected"
	// CategoryStatusChanged fires whenever any snapshot field changed.
	CategoryStatusChanged Category = "status_changed"
	// CategoryFullStatus fires when a full status payload replaced the snapshot.
	CategoryFullStatus Category = "full_status"
	// CategoryProgress carries connection progress, 0-100.
	CategoryProgress Category = "progress"
	// CategoryLocationsUpdated fires when the locations lists were replaced.
	CategoryLocationsUpdated Category = "locations_updated"
)

// Event is delivered to subscribers of a category.
type Event struct {
	Category Category
	// Progress is set for CategoryProgress events.
	Progress float64
	// Status is the snapshot taken right after the triggering message was
	// applied.
	Status Status
}

// subscriberBuffer bounds each subscription channel. Deliveries never
// block the dispatch goroutine; a subscriber that falls this far behind
// loses events.
const subscriberBuffer = 16

// registry is a category-keyed multicast with token-based unsubscribe.
// The one invariant callers rely on: subscribe before the triggering
// request is sent, unsubscribe exactly once afterward.
type registry struct {
	mu   sync.Mutex
	subs map[Category]map[uuid.UUID]chan Event
}

func newRegistry() *registry {
	return &registry{
		subs: make(map[Category]map[uuid.UUID]chan Event),
	}
}

// subscribe registers a new subscriber and returns its token and channel.
func (r *registry) subscribe(cat Category) (uuid.UUID, <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := uuid.New()
	ch := make(chan Event, subscriberBuffer)

	if r.subs[cat] == nil {
		r.subs[cat] = make(map[uuid.UUID]chan Event)
	}
	r.subs[cat][token] = ch

	return token, ch
}

// unsubscribe removes a subscriber. Safe to call for an already-removed
// token.
func (r *registry) unsubscribe(cat Category, token uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m := r.subs[cat]; m != nil {
		delete(m, token)
	}
}

// publish delivers the event to every current subscriber of its category
// without blocking.
func (r *registry) publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.subs[ev.Category] {
		select {
		case ch <- ev:
		default:
		}
	}
}
