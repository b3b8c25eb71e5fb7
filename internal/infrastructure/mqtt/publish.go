package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20

// PublishOptions controls a single publish.
type PublishOptions struct {
	// QoS for this publish. Out-of-range values fall back to the
	// configured default.
	QoS int
	// Retain asks the broker to keep the message for new subscribers.
	Retain bool
	// Base overrides the base topic prefix. Used for discovery documents,
	// which live under the discovery prefix instead of the bridge base.
	Base string
}

// Publish sends a message on a topic relative to the base prefix.
//
// The full topic is "<base>/<topic>" where base defaults to the configured
// base topic and can be overridden per publish (discovery documents are
// published under the discovery prefix). Failures are returned; callers in
// the event pipeline log and continue.
func (c *Client) Publish(topic string, payload []byte, opts PublishOptions) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	base := opts.Base
	if base == "" {
		base = c.topics.Base
	}
	qos := byte(opts.QoS)
	if opts.QoS < 0 || opts.QoS > 2 {
		qos = byte(c.cfg.QoS)
	}

	fullTopic := base + "/" + topic
	c.logger.Debug("MQTT publish", "topic", fullTopic, "payload", string(payload))

	token := c.client.Publish(fullTopic, qos, opts.Retain, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishState publishes the bridge availability state ("online"/"offline")
// to the will topic, retained.
func (c *Client) PublishState(state string) {
	if err := c.Publish(TopicWill, []byte(state), PublishOptions{QoS: 1, Retain: true}); err != nil {
		c.logger.Error("failed to publish bridge state", "state", state, "error", err)
	}
}
