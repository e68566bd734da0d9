package mqtt

import (
	"fmt"
	"strings"
)

// maxPayloadSize is the maximum allowed payload size (1MB).
// Larger payloads are rejected to prevent broker overload.
const maxPayloadSize = 1024 * 1024

// Publish sends a message to the specified topic.
//
// Parameters:
//   - topic: MQTT topic to publish to (must not contain wildcards)
//   - payload: message payload (max 1MB)
//   - qos: quality of service level (0, 1, or 2)
//   - retained: whether the broker should retain the message
//
// Returns ErrNotConnected if the client is not connected, ErrInvalidTopic
// for malformed topics, or ErrPublishFailed if the broker does not
// acknowledge within the publish timeout.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := validatePublishTopic(topic); err != nil {
		return err
	}

	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if qos > maxQoS {
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, qos)
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: publish timeout on topic %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience wrapper for publishing string payloads.
func (c *Client) PublishString(topic, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// validatePublishTopic checks that a topic is valid for publishing.
//
// Publish topics must not contain wildcards (+ or #) and must not be empty.
func validatePublishTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: topic %q contains wildcard characters", ErrInvalidTopic, topic)
	}
	if len(topic) > 65535 {
		return fmt.Errorf("%w: topic exceeds maximum length", ErrInvalidTopic)
	}
	return nil
}
