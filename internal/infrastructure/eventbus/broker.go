package eventbus

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/torchwallet/torchd/internal/core/ports"
)

type broker struct {
	mtx    sync.RWMutex
	nextId int
	subs   map[string]map[int]ports.EventHandler
	closed bool
}

func NewService() ports.EventBus {
	return &broker{
		subs: make(map[string]map[int]ports.EventHandler),
	}
}

// Publish fans the event out synchronously to the handlers subscribed at this
// instant. Each handler runs isolated, a panicking subscriber never aborts
// the publisher.
func (b *broker) Publish(topic string, payload any) {
	b.mtx.RLock()
	handlers := make([]ports.EventHandler, 0, len(b.subs[topic]))
	for _, handler := range b.subs[topic] {
		handlers = append(handlers, handler)
	}
	b.mtx.RUnlock()

	event := ports.Event{Topic: topic, Payload: payload}
	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

func (b *broker) deliver(handler ports.EventHandler, event ports.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("topic", event.Topic).Warnf("event handler panicked: %v", r)
		}
	}()
	handler(event)
}

func (b *broker) Subscribe(topic string, handler ports.EventHandler) func() {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return func() {}
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]ports.EventHandler)
	}
	id := b.nextId
	b.nextId++
	b.subs[topic][id] = handler

	return func() {
		b.mtx.Lock()
		defer b.mtx.Unlock()
		delete(b.subs[topic], id)
	}
}

func (b *broker) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.closed = true
	b.subs = make(map[string]map[int]ports.EventHandler)
}
