package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vermicompost_monitor/internal/control"
	"vermicompost_monitor/internal/logger"
)

var ErrBadPayload = errors.New("unrecognised pump command payload")

// Subscriber is the part of a paho client the source uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// ControlTopic is where the pump override for a device is published.
func ControlTopic(deviceID string) string {
	return "VermiBoxes/" + deviceID + "/Control/isPump"
}

// MQTTSource subscribes to the device's control topic and forwards every
// update to the mailbox. On connection loss it posts a fail-safe override
// and marks itself inactive until resubscribed.
type MQTTSource struct {
	sub   Subscriber
	topic string
	box   *Mailbox
	log   *logger.Logger

	active atomic.Bool
	lost   chan struct{}

	// mu orders mailbox writes so the last parsed request is never
	// overwritten by a stale one.
	mu        sync.Mutex
	requested bool
}

func NewMQTTSource(sub Subscriber, deviceID string, box *Mailbox, log *logger.Logger) *MQTTSource {
	return &MQTTSource{
		sub:   sub,
		topic: ControlTopic(deviceID),
		box:   box,
		log:   logger.OrNop(log),
		lost:  make(chan struct{}, 1),
	}
}

// Subscribe (re)establishes the subscription. The retained value, if any,
// arrives through the handler and may do so before Subscribe returns.
func (s *MQTTSource) Subscribe() error {
	tok := s.sub.Subscribe(s.topic, 1, s.handle)
	if tok.Wait() && tok.Error() != nil {
		s.post(false, false)
		return fmt.Errorf("subscribe %s: %w", s.topic, tok.Error())
	}
	s.active.Store(true)
	s.mu.Lock()
	s.box.Put(control.Override{Requested: s.requested, Healthy: true})
	s.mu.Unlock()
	s.log.Infow("remote_subscribed", "topic", s.topic)
	return nil
}

// post records the request and forwards it under the same lock.
func (s *MQTTSource) post(requested, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested = requested
	s.box.Put(control.Override{Requested: requested, Healthy: healthy})
}

// Active reports whether the subscription is believed to be live.
func (s *MQTTSource) Active() bool { return s.active.Load() }

// Lost is signalled each time the source goes inactive.
func (s *MQTTSource) Lost() <-chan struct{} { return s.lost }

// ConnectionLost forces the override off and marks the source inactive.
func (s *MQTTSource) ConnectionLost(err error) {
	s.active.Store(false)
	s.post(false, false)
	s.log.Warnw("remote_channel_lost", "topic", s.topic, "err", err)
	select {
	case s.lost <- struct{}{}:
	default:
	}
}

func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	on, err := ParseCommand(msg.Payload())
	if err != nil {
		s.log.Warnw("remote_bad_payload", "topic", msg.Topic(), "payload", string(msg.Payload()), "err", err)
		return
	}
	s.post(on, true)
	s.log.Debugw("remote_override", "requested", on, "retained", msg.Retained())
}

// ParseCommand accepts true/false, 1/0, on/off and {"isPump": bool}.
func ParseCommand(payload []byte) (bool, error) {
	raw := strings.ToLower(strings.Trim(strings.TrimSpace(string(payload)), `"`))
	switch raw {
	case "true", "1", "on":
		return true, nil
	case "false", "0", "off":
		return false, nil
	}
	var body struct {
		IsPump *bool `json:"isPump"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.IsPump == nil {
		return false, fmt.Errorf("%w: %q", ErrBadPayload, string(payload))
	}
	return *body.IsPump, nil
}
