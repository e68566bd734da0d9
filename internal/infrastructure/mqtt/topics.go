package mqtt

import (
	"fmt"
	"strings"
)

// Topic structure for the graybridge command transport:
//
//	graybridge/command/<op>                  command requests (open, load, pragma, select, execute, batch)
//	graybridge/response/<correlation_id>     command responses
//	graybridge/system/status                 retained online/offline status (LWT)
const topicRoot = "graybridge"

// Topics builds and parses graybridge topic strings.
//
// The zero value is ready to use:
//
//	topic := mqtt.Topics{}.Command("select")
type Topics struct{}

// Command returns the request topic for one operation.
func (Topics) Command(op string) string {
	return fmt.Sprintf("%s/command/%s", topicRoot, op)
}

// CommandPattern returns the wildcard pattern matching every command topic.
func (Topics) CommandPattern() string {
	return topicRoot + "/command/+"
}

// Response returns the response topic for a correlation ID.
func (Topics) Response(correlationID string) string {
	return fmt.Sprintf("%s/response/%s", topicRoot, correlationID)
}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return topicRoot + "/system/status"
}

// ParseCommandTopic extracts the operation name from a command topic.
//
// Returns ErrInvalidTopic when the topic is not of the form
// graybridge/command/<op>.
func ParseCommandTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != topicRoot || parts[1] != "command" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	return parts[2], nil
}
