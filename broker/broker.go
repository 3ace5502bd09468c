// Package broker provides the in-process publish/subscribe fan-out used to
// push order activity to connected dashboard and kitchen viewers.
//
// Delivery is best-effort and at-most-once: a subscriber whose buffer is
// full loses the event, a subscriber that connects after a publish never
// sees it, and no delivery failure affects other subscribers or the
// persistence path that triggered the publish. Events for one subscriber
// are delivered in publish order.
package broker

import (
	"sync"

	"table-order-api/models"
)

// Event kinds pushed to viewers.
const (
	EventNewOrder          = "NEW_ORDER"
	EventOrderStatusUpdate = "ORDER_STATUS_UPDATE"
)

// Event is a single broadcast message.
type Event struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

// StatusUpdatePayload is the wire shape of an ORDER_STATUS_UPDATE event.
type StatusUpdatePayload struct {
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	TableID     string             `json:"table_id"`
	RoomNumber  string             `json:"room_number"`
	Items       []models.OrderItem `json:"items"`
	TotalAmount float64            `json:"total_amount"`
}

// Broker fans events out to all current subscribers.
type Broker struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[int]chan Event
	bufSize int
}

// New creates a broker whose subscribers buffer up to bufSize events each.
func New(bufSize int) *Broker {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Broker{
		subs:    make(map[int]chan Event),
		bufSize: bufSize,
	}
}

// Subscribe registers a new viewer and returns its event channel plus an
// unsubscribe func. The channel is closed on unsubscribe.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufSize)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber without blocking.
// A subscriber with a full buffer misses this event.
func (b *Broker) Publish(kind string, payload interface{}) {
	ev := Event{Kind: kind, Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of currently connected viewers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
