package bus

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishQoS = 1

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	BrokerURL      string
	ClientID       string
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
	PublishTimeout time.Duration

	// OnConnect fires on every successful (re)connect, after registered
	// subscriptions have been restored.
	OnConnect func()
	// OnConnectionLost fires when an established connection drops. The
	// client keeps retrying in the background indefinitely.
	OnConnectionLost func(err error)
}

// MQTTTransport is the production Transport over an MQTT broker.
type MQTTTransport struct {
	client         mqtt.Client
	publishTimeout time.Duration

	mu   sync.Mutex
	subs map[string]Handler
}

func NewMQTTTransport(cfg MQTTConfig) *MQTTTransport {
	t := &MQTTTransport{
		publishTimeout: cfg.PublishTimeout,
		subs:           make(map[string]Handler),
	}
	if t.publishTimeout <= 0 {
		t.publishTimeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ReconnectMin).
		SetMaxReconnectInterval(cfg.ReconnectMax).
		SetOrderMatters(true).
		SetOnConnectHandler(func(_ mqtt.Client) {
			t.resubscribe()
			if cfg.OnConnect != nil {
				cfg.OnConnect()
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			if cfg.OnConnectionLost != nil {
				cfg.OnConnectionLost(err)
			}
		})

	t.client = mqtt.NewClient(opts)
	return t
}

// Connect starts the connection attempt. With connect-retry enabled the
// client keeps trying in the background, so an unreachable broker at
// startup is not an error; only immediate configuration problems are.
func (t *MQTTTransport) Connect() error {
	token := t.client.Connect()
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

func (t *MQTTTransport) Publish(topic string, payload []byte) error {
	token := t.client.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(t.publishTimeout) {
		return fmt.Errorf("mqtt publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

func (t *MQTTTransport) Subscribe(topic string, h Handler) error {
	t.mu.Lock()
	t.subs[topic] = h
	t.mu.Unlock()

	if t.client.IsConnectionOpen() {
		return t.subscribeNow(topic, h)
	}
	return nil
}

func (t *MQTTTransport) subscribeNow(topic string, h Handler) error {
	token := t.client.Subscribe(topic, publishQoS, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(t.publishTimeout) {
		return fmt.Errorf("mqtt subscribe to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe to %s: %w", topic, err)
	}
	return nil
}

func (t *MQTTTransport) resubscribe() {
	t.mu.Lock()
	subs := make(map[string]Handler, len(t.subs))
	for topic, h := range t.subs {
		subs[topic] = h
	}
	t.mu.Unlock()

	for topic, h := range subs {
		if err := t.subscribeNow(topic, h); err != nil {
			log.Printf("bus: resubscribe failed: %v", err)
		}
	}
}

func (t *MQTTTransport) Close() {
	t.client.Disconnect(250)
}
