package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/medicarehub-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "medicare-dev"}
	cases := map[string]string{
		"":                                   "",
		"  ":                                 "",
		"system-notifications":               "projects/medicare-dev/topics/system-notifications",
		"projects/other/topics/already-full": "projects/other/topics/already-full",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := (&Client{}).topicResourceName("t"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(context.Background(), config.PushConfig{Topic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.PushConfig{ProjectID: "p"}, nil); err != errTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil || c.PushPublisher() != nil {
		t.Fatal("nil client should not yield publishers")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
}
