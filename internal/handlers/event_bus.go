package handlers

import (
	"sync"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// EventPlayChanged is dispatched whenever playback toggles.
const EventPlayChanged = "play-changed"

type EventHandler func(data interface{})

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus delivers host-facing events. Handlers run on the publisher's
// goroutine in subscription order; a host that needs its own thread
// marshals inside the handler.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string][]subscription)}
}

// Subscribe registers handler and returns a func that removes just that
// registration.
func (bus *EventBus) Subscribe(eventType string, handler EventHandler) (unsubscribe func()) {
	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	bus.subs[eventType] = append(bus.subs[eventType], subscription{id: id, handler: handler})
	bus.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { bus.remove(eventType, id) })
	}
}

// OnPlayChanged is Subscribe for EventPlayChanged with a typed payload.
func (bus *EventBus) OnPlayChanged(fn func(types.PlayChanged)) (unsubscribe func()) {
	return bus.Subscribe(EventPlayChanged, func(data interface{}) {
		if ev, ok := data.(types.PlayChanged); ok {
			fn(ev)
		}
	})
}

func (bus *EventBus) Publish(eventType string, data interface{}) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs[eventType]))
	copy(subs, bus.subs[eventType])
	bus.mu.RUnlock()

	for _, s := range subs {
		s.handler(data)
	}
}

// Unsubscribe drops every handler of eventType.
func (bus *EventBus) Unsubscribe(eventType string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.subs, eventType)
}

func (bus *EventBus) remove(eventType string, id uint64) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	subs := bus.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			bus.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
