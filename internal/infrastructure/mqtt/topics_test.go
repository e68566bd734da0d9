package mqtt

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	if got := topics.Command("select"); got != "graybridge/command/select" {
		t.Errorf("Command() = %q, want graybridge/command/select", got)
	}
	if got := topics.CommandPattern(); got != "graybridge/command/+" {
		t.Errorf("CommandPattern() = %q, want graybridge/command/+", got)
	}
	if got := topics.Response("abc-123"); got != "graybridge/response/abc-123" {
		t.Errorf("Response() = %q, want graybridge/response/abc-123", got)
	}
	if got := topics.SystemStatus(); got != "graybridge/system/status" {
		t.Errorf("SystemStatus() = %q, want graybridge/system/status", got)
	}
}

func TestParseCommandTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{name: "select command", topic: "graybridge/command/select", want: "select"},
		{name: "execute command", topic: "graybridge/command/execute", want: "execute"},
		{name: "wrong root", topic: "other/command/select", wantErr: true},
		{name: "wrong segment", topic: "graybridge/response/select", wantErr: true},
		{name: "missing operation", topic: "graybridge/command/", wantErr: true},
		{name: "too many levels", topic: "graybridge/command/select/extra", wantErr: true},
		{name: "empty", topic: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommandTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopic) {
					t.Errorf("ParseCommandTopic(%q) error = %v, want ErrInvalidTopic", tt.topic, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommandTopic(%q) unexpected error: %v", tt.topic, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommandTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestValidatePublishTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		wantErr bool
	}{
		{name: "valid topic", topic: "graybridge/response/abc"},
		{name: "empty topic", topic: "", wantErr: true},
		{name: "plus wildcard", topic: "graybridge/+/abc", wantErr: true},
		{name: "hash wildcard", topic: "graybridge/#", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublishTopic(tt.topic)
			if tt.wantErr && !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("validatePublishTopic(%q) error = %v, want ErrInvalidTopic", tt.topic, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validatePublishTopic(%q) unexpected error: %v", tt.topic, err)
			}
		})
	}
}

func TestValidateSubscribeTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		wantErr bool
	}{
		{name: "plain topic", topic: "graybridge/command/select"},
		{name: "plus level", topic: "graybridge/command/+"},
		{name: "hash final level", topic: "graybridge/#"},
		{name: "empty", topic: "", wantErr: true},
		{name: "hash mid-topic", topic: "graybridge/#/status", wantErr: true},
		{name: "hash embedded in level", topic: "graybridge/com#mand", wantErr: true},
		{name: "plus embedded in level", topic: "graybridge/com+mand", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSubscribeTopic(tt.topic)
			if tt.wantErr && !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("validateSubscribeTopic(%q) error = %v, want ErrInvalidTopic", tt.topic, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateSubscribeTopic(%q) unexpected error: %v", tt.topic, err)
			}
		})
	}
}

func TestDisconnectedClientOperations(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("graybridge/response/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish on disconnected client = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("graybridge/command/+", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe on disconnected client = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
}
