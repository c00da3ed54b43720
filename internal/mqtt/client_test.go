package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/zowiebox/internal/config"
)

func testMQTTConfig() config.MQTT {
	return config.MQTT{
		Broker:           "tcp://127.0.0.1:1883",
		ClientID:         "zowiebox-test",
		DiscoveryPrefix:  "homeassistant",
		TopicPrefix:      "zowiebox",
		QoS:              1,
		ReconnectInitial: 2,
		ReconnectMax:     30,
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Username = "user"
	cfg.Password = "secret"

	opts := buildClientOptions(cfg)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://127.0.0.1:1883", opts.Servers[0].String())
	assert.Equal(t, "zowiebox-test", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.CleanSession)
	assert.True(t, opts.AutoReconnect)
	assert.Equal(t, 2*time.Second, opts.ConnectRetryInterval)
	assert.Equal(t, 30*time.Second, opts.MaxReconnectInterval)
	assert.Nil(t, opts.TLSConfig)
}

func TestBuildClientOptionsAnonymous(t *testing.T) {
	opts := buildClientOptions(testMQTTConfig())
	assert.Empty(t, opts.Username)
	assert.Empty(t, opts.Password)
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Broker = "ssl://broker.local:8883"

	opts := buildClientOptions(cfg)

	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, uint16(tlsMinVersion), opts.TLSConfig.MinVersion)
}

func TestSecureBroker(t *testing.T) {
	assert.True(t, secureBroker("ssl://h:8883"))
	assert.True(t, secureBroker("tls://h:8883"))
	assert.True(t, secureBroker("mqtts://h:8883"))
	assert.True(t, secureBroker("wss://h/mqtt"))
	assert.False(t, secureBroker("tcp://h:1883"))
	assert.False(t, secureBroker("ws://h/mqtt"))
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testMQTTConfig())
	configureLWT(opts, "zowiebox/zowiebox-test/availability", 1)

	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "zowiebox/zowiebox-test/availability", opts.WillTopic)
	assert.Equal(t, []byte(PayloadOffline), opts.WillPayload)
	assert.Equal(t, byte(1), opts.WillQos)
	assert.True(t, opts.WillRetained)
}

func TestPublishValidation(t *testing.T) {
	c := &Client{logger: zerolog.Nop(), subscriptions: make(map[string]subscription)}

	assert.ErrorIs(t, c.Publish("", []byte("x"), 0, false), ErrInvalidTopic)
	assert.ErrorIs(t, c.Publish("t", []byte("x"), 3, false), ErrInvalidQoS)
	assert.ErrorIs(t, c.Publish("t", make([]byte, maxPayloadSize+1), 0, false), ErrPublishFailed)
	assert.ErrorIs(t, c.Publish("t", []byte("x"), 0, false), ErrNotConnected)
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{logger: zerolog.Nop(), subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	assert.ErrorIs(t, c.Subscribe("", 0, handler), ErrInvalidTopic)
	assert.ErrorIs(t, c.Subscribe("t", 3, handler), ErrInvalidQoS)
	assert.ErrorIs(t, c.Subscribe("t", 0, nil), ErrSubscribeFailed)
	assert.ErrorIs(t, c.Subscribe("t", 0, handler), ErrNotConnected)
	assert.ErrorIs(t, c.Unsubscribe(""), ErrInvalidTopic)
	assert.ErrorIs(t, c.Unsubscribe("t"), ErrNotConnected)
	assert.Zero(t, c.SubscriptionCount())
}

func TestCloseUnconnected(t *testing.T) {
	c := &Client{}
	assert.NoError(t, c.Close())
}

func TestHealthCheck(t *testing.T) {
	c := &Client{}
	assert.ErrorIs(t, c.HealthCheck(context.Background()), ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.HealthCheck(ctx), context.Canceled)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestWrapHandlerRecoversPanic(t *testing.T) {
	c := &Client{logger: zerolog.Nop()}

	var got string
	ok := c.wrapHandler(func(topic string, payload []byte) error {
		got = topic + "=" + string(payload)
		return errors.New("ignored")
	})
	ok(nil, fakeMessage{topic: "a", payload: []byte("1")})
	assert.Equal(t, "a=1", got)

	panicky := c.wrapHandler(func(string, []byte) error { panic("boom") })
	assert.NotPanics(t, func() { panicky(nil, fakeMessage{topic: "b"}) })
}
