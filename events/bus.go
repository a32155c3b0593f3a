package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Topic names an event stream carrying payloads of type T.
type Topic[T any] struct {
	Name string
}

// Forwarder receives every published event after local subscribers ran.
type Forwarder interface {
	Forward(ctx context.Context, topic string, payload any) error
}

type subscriber struct {
	id int
	fn func(context.Context, any)
}

/*
Bus is an in-process observer hub keyed by topic name.

Handlers run synchronously on the publishing goroutine, in subscription order.
A handler must not publish to the same bus while holding locks its publisher needs.
*/
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID int

	forwarder Forwarder
	logger    *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{subs: make(map[string][]subscriber), logger: logger}
}

// SetForwarder mirrors every later publish to f. Nil disables forwarding.
func (b *Bus) SetForwarder(f Forwarder) {
	b.mu.Lock()
	b.forwarder = f
	b.mu.Unlock()
}

// Subscribe registers fn on topic and returns a func that removes it.
// The returned func is safe to call more than once.
func Subscribe[T any](b *Bus, topic Topic[T], fn func(context.Context, T)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic.Name] = append(b.subs[topic.Name], subscriber{
		id: id,
		fn: func(ctx context.Context, v any) { fn(ctx, v.(T)) },
	})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic.Name, id) })
	}
}

func (b *Bus) remove(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers payload to every subscriber of topic, then to the forwarder.
// A forwarding failure is logged and never reaches the publisher.
func Publish[T any](ctx context.Context, b *Bus, topic Topic[T], payload T) {
	if b == nil {
		return
	}

	b.mu.RLock()
	subs := b.subs[topic.Name]
	fwd := b.forwarder
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, payload)
	}

	if fwd != nil {
		if err := fwd.Forward(ctx, topic.Name, payload); err != nil {
			b.logger.Warn("event forward failed", zap.String("topic", topic.Name), zap.Error(err))
		}
	}
}

// Subscribers reports how many handlers listen on a topic name.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
