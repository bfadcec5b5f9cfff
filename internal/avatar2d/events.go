package avatar2d

import (
	"github.com/normanking/cortexrig/internal/bus"
)

// EventPublisher is an Observer that republishes rig activity on the bus.
type EventPublisher struct {
	bus *bus.EventBus
}

func NewEventPublisher(b *bus.EventBus) *EventPublisher {
	return &EventPublisher{bus: b}
}

func (p *EventPublisher) FrameComposed(string, bool) {}

func (p *EventPublisher) ModeChanged(rigID string, from, to Mode, emotion string) {
	p.bus.Publish(bus.Event{
		Type: bus.EventTypeModeChanged,
		Data: map[string]any{"rig": rigID, "from": from.String(), "to": to.String(), "emotion": emotion},
	})
}

func (p *EventPublisher) Triggered(rigID string, emotion string, id uint64) {
	p.bus.Publish(bus.Event{
		Type: bus.EventTypeEmotionStarted,
		Data: map[string]any{"rig": rigID, "emotion": emotion, "trigger_id": id},
	})
}

func (p *EventPublisher) StaleReversion(rigID string, id uint64) {
	p.bus.Publish(bus.Event{
		Type: bus.EventTypeStaleReversion,
		Data: map[string]any{"rig": rigID, "trigger_id": id},
	})
}

// Subscribe routes emotion triggers and mouth levels published on the bus
// into the rig. Every emotion.triggered event is a new trigger.
func (r *Rig) Subscribe(b *bus.EventBus) {
	b.Subscribe(bus.EventTypeEmotionTriggered, func(e bus.Event) {
		name := e.String("emotion")
		if name == "" {
			r.logger.Debug().Msg("emotion.triggered without a name")
			return
		}
		// Errors are already logged by Trigger.
		_, _ = r.Trigger(name)
	})

	b.Subscribe(bus.EventTypeMouthOverride, func(e bus.Event) {
		level, ok := e.Float("level")
		if !ok {
			r.logger.Debug().Msg("avatar.mouth_override without a level")
			return
		}
		r.SetMouthOverride(level)
	})
}
