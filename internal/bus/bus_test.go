package bus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishSyncKeepsOrder(t *testing.T) {
	b := NewEventBus()
	var got []string
	b.Subscribe(EventTypeEmotionTriggered, func(e Event) { got = append(got, e.String("emotion")) })

	for _, name := range []string{"happy", "sad", "neutral"} {
		b.PublishSync(Event{Type: EventTypeEmotionTriggered, Data: map[string]any{"emotion": name}})
	}
	assert.Equal(t, []string{"happy", "sad", "neutral"}, got)
}

func TestPublishSyncWaitsForAllHandlers(t *testing.T) {
	b := NewEventBus()
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		b.Subscribe(EventTypeModeChanged, func(Event) {
			time.Sleep(5 * time.Millisecond)
			n.Add(1)
		})
	}
	b.PublishSync(Event{Type: EventTypeModeChanged})
	assert.Equal(t, int32(3), n.Load())
}

func TestPublishAsync(t *testing.T) {
	b := NewEventBus()
	done := make(chan Event, 2)
	b.SubscribeMultiple([]EventType{EventTypeCatalogReloaded, EventTypeStaleReversion}, func(e Event) { done <- e })

	b.Publish(Event{Type: EventTypeCatalogReloaded})
	select {
	case e := <-done:
		assert.Equal(t, EventTypeCatalogReloaded, e.Type)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	b.Clear()
	b.PublishSync(Event{Type: EventTypeStaleReversion})
	assert.Empty(t, done)
}

func TestEventAccessors(t *testing.T) {
	e := Event{Data: map[string]any{"name": "happy", "f": 0.5, "i": 2, "f32": float32(0.25), "s": "x"}}
	assert.Equal(t, "happy", e.String("name"))
	assert.Equal(t, "", e.String("f"))

	v, ok := e.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
	v, _ = e.Float("i")
	assert.Equal(t, 2.0, v)
	v, _ = e.Float("f32")
	assert.Equal(t, 0.25, v)
	_, ok = e.Float("s")
	assert.False(t, ok)
	_, ok = e.Float("missing")
	assert.False(t, ok)
}
