package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of a paho client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes the live record retained on RealTimeData/<id> and each
// historical record on RecordsData/<id>/<unix>.
type MQTTSink struct {
	pub Publisher
	qos byte
}

func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub, qos: 1}
}

func LiveTopic(deviceID string) string { return "RealTimeData/" + deviceID }

func RecordTopic(deviceID string, unix int64) string {
	return fmt.Sprintf("RecordsData/%s/%d", deviceID, unix)
}

func (s *MQTTSink) Upsert(ctx context.Context, deviceID string, rec Record) error {
	return s.publish(ctx, LiveTopic(deviceID), true, rec)
}

func (s *MQTTSink) Append(ctx context.Context, deviceID string, rec Record) error {
	return s.publish(ctx, RecordTopic(deviceID, rec.Timestamp), false, rec)
}

func (s *MQTTSink) publish(ctx context.Context, topic string, retained bool, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	tok := s.pub.Publish(topic, s.qos, retained, payload)
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
