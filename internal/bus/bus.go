// Package bus provides an internal event bus for component communication
package bus

import (
	"sync"
)

// EventType identifies different event types
type EventType string

// Event types for cortexrig
const (
	// Input events, consumed by the rig
	EventTypeEmotionTriggered EventType = "emotion.triggered"
	EventTypeMouthOverride    EventType = "avatar.mouth_override"
	EventTypePointerMoved     EventType = "pointer.moved"

	// Rig events
	EventTypeEmotionStarted EventType = "avatar.emotion_started"
	EventTypeModeChanged    EventType = "avatar.mode_changed"
	EventTypeStaleReversion EventType = "avatar.stale_reversion"

	// Catalog events
	EventTypeCatalogReloaded EventType = "catalog.reloaded"
)

// Event represents a bus event
type Event struct {
	Type EventType
	Data map[string]any
}

// String returns the string value stored under key, or "".
func (e Event) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// Float returns the numeric value stored under key.
func (e Event) Float(key string) (float64, bool) {
	switch v := e.Data[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Handler is a function that handles events
type Handler func(Event)

// EventBus is a simple pub/sub event bus
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for an event type
func (b *EventBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeMultiple adds a handler for multiple event types
func (b *EventBus) SubscribeMultiple(eventTypes []EventType, handler Handler) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

// Publish sends an event to all subscribed handlers without waiting.
// Delivery order between separate Publish calls is not guaranteed.
func (b *EventBus) Publish(event Event) {
	for _, handler := range b.snapshot(event.Type) {
		go handler(event)
	}
}

// PublishSync sends an event and waits for all handlers to complete.
// Successive PublishSync calls from one goroutine are seen in order.
func (b *EventBus) PublishSync(event Event) {
	handlers := b.snapshot(event.Type)
	if len(handlers) == 1 {
		handlers[0](event)
		return
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			h(event)
		}(handler)
	}
	wg.Wait()
}

func (b *EventBus) snapshot(t EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.handlers[t]))
	copy(handlers, b.handlers[t])
	return handlers
}

// Clear removes all handlers
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]Handler)
}
