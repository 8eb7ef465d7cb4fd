package mqttc

import (
	"errors"
	"reflect"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/grvsrs/mqttgram/pkg/bridge"
)

type fakeToken struct {
	err error
}

var _ mqtt.Token = (*fakeToken)(nil)

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakePublish struct {
	topic    string
	payload  string
	retained bool
}

// fakeMQTTClient records subscriptions and publishes; filters listed in
// failFilters get a rejected token. The embedded interface covers the
// methods the tests never reach.
type fakeMQTTClient struct {
	mqtt.Client
	subs        []string
	pubs        []fakePublish
	failFilters map[string]bool
}

func (f *fakeMQTTClient) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	f.subs = append(f.subs, topic)
	if f.failFilters[topic] {
		return &fakeToken{err: errors.New("subscription rejected")}
	}
	return &fakeToken{}
}

func (f *fakeMQTTClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.pubs = append(f.pubs, fakePublish{topic: topic, payload: string(payload.([]byte)), retained: retained})
	return &fakeToken{}
}

func newTestClient() *Client {
	return New(Options{
		URL:          "tcp://localhost:1883",
		ClientID:     "mqttgram-test",
		OutputTopics: []string{"telegram/output/#"},
	}, func(string, []byte) {}, zerolog.Nop())
}

func TestNewStartsDisconnected(t *testing.T) {
	c := newTestClient()
	if got := c.Status(); got != bridge.StatusDisconnected {
		t.Errorf("Status = %s, want %s", got, bridge.StatusDisconnected)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	c := newTestClient()
	if err := c.Publish("telegram/input", []byte("on")); err == nil {
		t.Error("Publish succeeded without a connection, want error")
	}
}

func TestOnConnectSubscribesAllFilters(t *testing.T) {
	filters := []string{"telegram/output/#", "mt32/#", "alerts/#"}
	c := New(Options{
		URL:          "tcp://localhost:1883",
		ClientID:     "mqttgram-test",
		OutputTopics: filters,
		StatusTopic:  "telegram/bridge/status",
	}, func(string, []byte) {}, zerolog.Nop())

	// The middle filter is rejected by the broker; the rest must still be
	// applied in order.
	fake := &fakeMQTTClient{failFilters: map[string]bool{"mt32/#": true}}
	c.client = fake

	c.onConnect(fake)

	if !reflect.DeepEqual(fake.subs, filters) {
		t.Errorf("subscribed filters = %v, want %v", fake.subs, filters)
	}
	if got := c.Status(); got != bridge.StatusConnected {
		t.Errorf("Status = %s, want %s", got, bridge.StatusConnected)
	}
	if len(fake.pubs) != 1 {
		t.Fatalf("publishes = %d, want 1 availability publish", len(fake.pubs))
	}
	pub := fake.pubs[0]
	if pub.topic != "telegram/bridge/status" || pub.payload != availabilityOnline || !pub.retained {
		t.Errorf("availability publish = %+v, want retained %q on the status topic", pub, availabilityOnline)
	}
}

func TestOnConnectReappliesFullSetOnReconnect(t *testing.T) {
	filters := []string{"telegram/output/#", "mt32/#"}
	c := New(Options{
		URL:          "tcp://localhost:1883",
		ClientID:     "mqttgram-test",
		OutputTopics: filters,
	}, func(string, []byte) {}, zerolog.Nop())

	fake := &fakeMQTTClient{}
	c.client = fake

	c.onConnect(fake)
	c.onConnect(fake)

	want := append(append([]string{}, filters...), filters...)
	if !reflect.DeepEqual(fake.subs, want) {
		t.Errorf("subscribed filters across two connects = %v, want %v", fake.subs, want)
	}
}

func TestStatusTransitions(t *testing.T) {
	c := newTestClient()

	c.onReconnecting(nil, nil)
	if got := c.Status(); got != bridge.StatusConnecting {
		t.Errorf("after reconnecting hook: Status = %s, want %s", got, bridge.StatusConnecting)
	}

	c.onConnectionLost(nil, nil)
	if got := c.Status(); got != bridge.StatusDisconnected {
		t.Errorf("after connection-lost hook: Status = %s, want %s", got, bridge.StatusDisconnected)
	}
}
