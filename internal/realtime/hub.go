package realtime

import (
	"sync"

	"go.uber.org/zap"

	"seedorders/internal/domain"
)

// Hub fans order change events out to every live subscription. Delivery is
// best effort: a subscriber that does not keep up loses events.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscription is one consumer's view of the change feed. Close must be
// called once the consumer goes away; it is safe to call more than once.
type Subscription struct {
	events chan domain.ChangeEvent
	hub    *Hub
	once   sync.Once
}

func (s *Subscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.hub.remove(s)
	})
	return nil
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		events: make(chan domain.ChangeEvent, h.buffer),
		hub:    h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub
	}
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("feed subscription opened", zap.Int("subscribers", count))
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.events)
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("feed subscription released", zap.Int("subscribers", count))
}

// Publish delivers ev to every subscriber without blocking the writer.
func (h *Hub) Publish(ev domain.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn("feed subscriber lagging, event dropped",
				zap.String("type", string(ev.Type)),
				zap.String("orderId", ev.OrderID()),
			)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and makes later ones start closed. Consumers
// see their Events channel close.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.events)
	}
	h.closed = true
}
