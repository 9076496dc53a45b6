package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// mqttClient is the subset of common/mqtt.Client used here
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

// MQTTPublisher publishes events as JSON to <topic>/<child_id>
type MQTTPublisher struct {
	client mqttClient
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewMQTTPublisher(client mqttClient, topic string, qos byte, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, qos: qos, logger: logger}
}

func (p *MQTTPublisher) PublishStatusChanged(_ context.Context, ev StatusChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}
	topic := p.topic + "/" + ev.ChildID
	if err := p.client.Publish(topic, p.qos, false, payload); err != nil {
		return err
	}
	p.logger.Debug("Published status change", zap.String("topic", topic))
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect()
	return nil
}
