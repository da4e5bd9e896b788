package events

import (
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"
)

// Topic delivers values of type T to subscribers.
type Topic[T any] struct {
	name string
	bus  evbus.Bus

	mu          sync.Mutex
	dispatching bool
	queue       []T
}

// NewTopic returns a topic backed by its own bus.
func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name, bus: evbus.New()}
}

// Subscribe registers fn for every published value. fn may publish to the topic; it must
// not call Subscribe. The returned function stops delivery.
func (t *Topic[T]) Subscribe(fn func(T)) (func(), error) {
	var active atomic.Bool
	active.Store(true)
	handler := func(v T) {
		if active.Load() {
			fn(v)
		}
	}
	if err := t.bus.Subscribe(t.name, handler); err != nil {
		return nil, err
	}
	return func() { active.Store(false) }, nil
}

// Publish delivers v to every subscriber before returning, unless a delivery is already
// running. In that case v is queued and the running delivery hands it on after the value
// it is delivering now.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	t.queue = append(t.queue, v)
	if t.dispatching {
		t.mu.Unlock()
		return
	}
	t.dispatching = true
	for len(t.queue) > 0 {
		next := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()

		t.bus.Publish(t.name, next)

		t.mu.Lock()
	}
	t.queue = nil
	t.dispatching = false
	t.mu.Unlock()
}
