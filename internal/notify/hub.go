// Package notify implements the real-time order event layer: an in-process
// publish/subscribe hub feeding connected dashboard, POS and tracking
// clients, plus an optional AMQP bridge mirroring events onto a broker.
//
// Delivery is at-most-once and best-effort. A slow subscriber has events
// dropped rather than queued; a disconnected client misses events until it
// reconnects and re-fetches state through the list endpoints.
package notify

import (
	"sync"

	"fooddupe/prometheus"
)

// Event names delivered over the stream
const (
	EventNewOrder      = "new-order"
	EventStatusUpdated = "order-status-updated"
	EventStatusTrack   = "status-update"
)

// Event is one message delivered to subscribers of a channel
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// TenantChannel returns the channel name all dashboards and POS clients of
// one tenant join.
func TenantChannel(subdomain string) string {
	return "tenant:" + subdomain
}

// OrderChannel returns the channel name for tracking a single order
func OrderChannel(number string) string {
	return "order:" + number
}

// Subscription is one connected client's view of the hub
type Subscription struct {
	C        <-chan Event
	ch       chan Event
	channels []string
	hub      *Hub
	once     sync.Once
}

// Close detaches the subscription from the hub
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

// Hub fans events out to subscribers grouped by channel name. Channels are
// purely logical; joining is client-initiated on connect.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	bufSize int
}

// NewHub creates a hub with the given per-subscriber buffer size
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		subs:    make(map[string]map[*Subscription]struct{}),
		bufSize: bufSize,
	}
}

// Subscribe joins the given channels and returns a subscription whose C
// receives every event published to any of them.
func (h *Hub) Subscribe(channels ...string) *Subscription {
	sub := &Subscription{
		ch:       make(chan Event, h.bufSize),
		channels: channels,
		hub:      h,
	}
	sub.C = sub.ch

	h.mu.Lock()
	for _, name := range channels {
		set, ok := h.subs[name]
		if !ok {
			set = make(map[*Subscription]struct{})
			h.subs[name] = set
		}
		set[sub] = struct{}{}
	}
	h.mu.Unlock()

	prometheus.RecordSubscriberConnected()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	for _, name := range sub.channels {
		if set, ok := h.subs[name]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, name)
			}
		}
	}
	h.mu.Unlock()

	prometheus.RecordSubscriberDisconnected()
}

// Publish delivers the event to every current subscriber of the channel.
// Sends never block; a full subscriber buffer drops the event for that
// subscriber only.
func (h *Hub) Publish(channel string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	prometheus.RecordNotifyPublished(ev.Name)
	for sub := range h.subs[channel] {
		select {
		case sub.ch <- ev:
		default:
			prometheus.RecordNotifyDropped(ev.Name)
		}
	}
}

// Subscribers returns the current subscriber count for a channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
