package bus

// Handler receives one inbound message for a subscribed topic.
type Handler func(topic string, payload []byte)

// Transport is the wire-level pub/sub connection. The MQTT implementation
// is the production transport; tests substitute an in-process fake.
type Transport interface {
	// Publish sends one message. It returns an error when the transport is
	// down or the send cannot be confirmed in time.
	Publish(topic string, payload []byte) error
	// Subscribe registers a handler for a topic. Registration survives
	// reconnects: the transport re-subscribes every registered topic on
	// each (re)connect.
	Subscribe(topic string, h Handler) error
	Close()
}
