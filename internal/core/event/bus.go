package event

import (
	"reflect"
	"sync"
)

// Event is a named fact. Names are stable identifiers consumed by
// notification and presentation layers (e.g. "building_demolished").
type Event interface {
	Name() string
}

// Bus is a double-buffered event bus. Events emitted in tick N are delivered
// at the start of tick N+1 when Flush is called. Delivery is fire-and-forget:
// emitters never observe handlers, and a bus without subscribers is valid.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []Event
	back     []Event
	handlers map[reflect.Type][]func(Event)
	all      []func(Event)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]Event, 0, 64),
		back:     make([]Event, 0, 64),
		handlers: make(map[reflect.Type][]func(Event)),
	}
}

// Emit queues an event into the back buffer (delivered next flush).
func (b *Bus) Emit(ev Event) {
	if b == nil || ev == nil {
		return
	}
	b.back = append(b.back, ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T Event](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev Event) {
		fn(ev.(T))
	})
}

// SubscribeAll registers a handler receiving every event.
func (b *Bus) SubscribeAll(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers front-buffer events to their handlers in emission order.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	all := b.all
	handlers := b.handlers
	b.mu.Unlock()
	for _, ev := range b.front {
		for _, h := range handlers[reflect.TypeOf(ev)] {
			h(ev)
		}
		for _, h := range all {
			h(ev)
		}
	}
}

// Flush swaps buffers and dispatches. Called once at tick start.
func (b *Bus) Flush() {
	b.SwapBuffers()
	b.DispatchAll()
}

// Pending returns the number of events waiting for the next flush.
func (b *Bus) Pending() int {
	return len(b.back)
}
