// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-nbody/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
	FrameAdvanced     Type = "frame_advanced"
	BodiesMerged      Type = "bodies_merged"
	FrameCorrupted    Type = "frame_corrupted"
	ScenarioReloaded  Type = "scenario_reloaded"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			b.handlers[eventType] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// Specific event implementations

// MergeEvent is published when two overlapping bodies are replaced by
// their merged body.
type MergeEvent struct {
	BaseEvent
	Mass     float64
	Charge   float64
	Position physics.Vector2D
}

// NewMergeEvent creates a merge event describing the resulting body
func NewMergeEvent(source interface{}, merged *physics.Body) *MergeEvent {
	return &MergeEvent{
		BaseEvent: BaseEvent{
			EventType: BodiesMerged,
			Source:    source,
		},
		Mass:     merged.Mass(),
		Charge:   merged.Charge(),
		Position: merged.Position(),
	}
}

// FrameEvent carries the world telemetry after a frame
type FrameEvent struct {
	BaseEvent
	Frame   uint64
	Bodies  int
	SimTime float64
}

// NewFrameEvent creates a frame event of the given type
func NewFrameEvent(eventType Type, source interface{}, frame uint64, bodies int, simTime float64) *FrameEvent {
	return &FrameEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Frame:   frame,
		Bodies:  bodies,
		SimTime: simTime,
	}
}

// CorruptionEvent reports a frame whose forces could not be applied
type CorruptionEvent struct {
	BaseEvent
	Frame uint64
	Err   error
}

// NewCorruptionEvent creates a FrameCorrupted event
func NewCorruptionEvent(source interface{}, frame uint64, err error) *CorruptionEvent {
	return &CorruptionEvent{
		BaseEvent: BaseEvent{
			EventType: FrameCorrupted,
			Source:    source,
		},
		Frame: frame,
		Err:   err,
	}
}
