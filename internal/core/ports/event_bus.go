package ports

type Event struct {
	Topic   string
	Payload any
}

type EventHandler func(event Event)

// EventBus is a fire-and-forget, in-process topic broker. Delivery is
// synchronous fan-out to the handlers subscribed at publish time; there is no
// persistence or replay. A misbehaving handler must not abort the publisher.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
	Close()
}
