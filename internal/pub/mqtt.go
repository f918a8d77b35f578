package pub

import (
	"context"
	"fmt"
	"pnoti/internal/types"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 1000 // milliseconds
	mqttKeepAlive         = 60 * time.Second

	DefaultMQTTTopicPrefix = "pnoti/pending"
	DefaultMQTTClientID    = "pnoti"
)

// mqttAPI is the slice of pahomqtt.Client used here.
type mqttAPI interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes every event to <prefix>/<deviceId>, so a device subscribes to its own topic only.
type MQTT struct {
	client mqttAPI
	prefix string
	qos    byte
}

// ConnectMQTT dials the broker and blocks until connected or the connect timeout elapses.
func ConnectMQTT(cfg types.PublishSettings) (*MQTT, error) {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = DefaultMQTTClientID
	}
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(mqttKeepAlive)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, types.Err(types.ErrPublish, nil, "mqtt connect to %s timed out after %v", cfg.MQTTBroker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, types.Err(types.ErrPublish, err, "mqtt connect to %s failed", cfg.MQTTBroker)
	}
	log.WithFields(log.Fields{"broker": cfg.MQTTBroker, "clientId": clientID}).Info("mqtt connected")
	return newMQTT(client, cfg.MQTTTopicPrefix, byte(cfg.MQTTQoS)), nil
}

func newMQTT(client mqttAPI, prefix string, qos byte) *MQTT {
	if prefix == "" {
		prefix = DefaultMQTTTopicPrefix
	}
	return &MQTT{client: client, prefix: strings.TrimSuffix(prefix, "/"), qos: qos}
}

func (m *MQTT) Topic(deviceID string) string {
	return fmt.Sprintf("%s/%s", m.prefix, deviceID)
}

func (m *MQTT) Publish(ctx context.Context, ev types.PendingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return types.Err(types.ErrPublish, err, "failed to marshal event")
	}
	topic := m.Topic(ev.DeviceID)
	token := m.client.Publish(topic, m.qos, false, payload)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if !token.WaitTimeout(timeout) {
		return types.Err(types.ErrPublish, nil, "mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return types.Err(types.ErrPublish, err, "mqtt publish to %s failed", topic)
	}
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
