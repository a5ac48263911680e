package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakeClient struct {
	paho.Client

	lock         sync.Mutex
	connected    bool
	handler      paho.MessageHandler
	subscribed   []string
	unsubscribed []string
	published    []published
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func (c *fakeClient) Connect() paho.Token {
	c.lock.Lock()
	c.connected = true
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.lock.Lock()
	c.connected = false
	c.lock.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.lock.Lock()
	c.published = append(c.published, published{topic: topic, payload: payload.([]byte), retained: retained})
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	c.lock.Lock()
	c.subscribed = append(c.subscribed, topic)
	c.handler = cb
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, cb paho.MessageHandler) paho.Token {
	for topic := range filters {
		c.Subscribe(topic, 0, cb)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.lock.Lock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	c.lock.Unlock()
	return &paho.DummyToken{}
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.lock.Lock()
	cb := c.handler
	c.lock.Unlock()
	if cb != nil {
		cb(c, &fakeMessage{topic: topic, payload: payload})
	}
}

func (c *fakeClient) publishedTo(topic string) (msgs []published) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, msg := range c.published {
		if msg.topic == topic {
			msgs = append(msgs, msg)
		}
	}
	return
}
