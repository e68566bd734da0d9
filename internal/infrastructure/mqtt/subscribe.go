package mqtt

import (
	"fmt"
	"strings"
)

// Subscribe registers a handler for messages on the specified topic.
//
// The subscription is tracked internally and automatically restored if
// the connection drops and reconnects. Subscribing to a topic that is
// already subscribed replaces the existing handler.
//
// Parameters:
//   - topic: MQTT topic filter (wildcards + and # are allowed)
//   - qos: quality of service level (0, 1, or 2)
//   - handler: callback invoked for each received message
//
// Returns ErrNotConnected if the client is not connected, ErrInvalidTopic
// for malformed topic filters, or ErrSubscribeFailed if the broker does
// not acknowledge within the publish timeout.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := validateSubscribeTopic(topic); err != nil {
		return err
	}

	if qos > maxQoS {
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, qos)
	}

	if handler == nil {
		return fmt.Errorf("%w: handler is nil", ErrSubscribeFailed)
	}

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: subscribe timeout on topic %s", ErrSubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s", ErrSubscribeFailed, err)
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	return nil
}

// Unsubscribe removes the subscription for the specified topic.
//
// The topic is removed from the internal tracking map regardless of
// whether the broker acknowledges, so it will not be restored on
// reconnect.
func (c *Client) Unsubscribe(topic string) error {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: unsubscribe timeout on topic %s", ErrUnsubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsubscribeFailed, err)
	}

	return nil
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription reports whether a subscription exists for the topic.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// validateSubscribeTopic checks that a topic filter is valid.
//
// Wildcards are permitted but must follow MQTT placement rules: # only
// as the final level, + only as a complete level.
func validateSubscribeTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidTopic)
	}
	if len(topic) > 65535 {
		return fmt.Errorf("%w: topic exceeds maximum length", ErrInvalidTopic)
	}

	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") {
			if level != "#" || i != len(levels)-1 {
				return fmt.Errorf("%w: # wildcard must be the final topic level", ErrInvalidTopic)
			}
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: + wildcard must occupy a complete topic level", ErrInvalidTopic)
		}
	}

	return nil
}
