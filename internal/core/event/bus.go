package event

import (
	"reflect"
)

// Bus is a double-buffered event bus. Events emitted during frame N are
// delivered in frame N+1 when the events controller calls Swap then Dispatch.
// Single-goroutine access only (frame loop).
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
	order    []reflect.Type
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := b.track(keyOf[T]())
	b.back[t] = append(b.back[t], event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := b.track(keyOf[T]())
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// track remembers first-seen order of event types so Dispatch is
// deterministic across runs.
func (b *Bus) track(t reflect.Type) reflect.Type {
	if _, ok := b.handlers[t]; ok {
		return t
	}
	if _, ok := b.back[t]; ok {
		return t
	}
	if _, ok := b.front[t]; ok {
		return t
	}
	b.order = append(b.order, t)
	b.handlers[t] = nil
	return t
}

// Swap rotates back to front and clears the new back buffer.
func (b *Bus) Swap() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// Dispatch delivers every front-buffer event to its handlers and returns the
// number of events delivered.
func (b *Bus) Dispatch() int {
	n := 0
	for _, t := range b.order {
		events := b.front[t]
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
		n += len(events)
	}
	return n
}

// Pending reports how many events wait in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}
