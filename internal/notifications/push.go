package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/pubsub"
)

const (
	pushTag            = "medicare-notification"
	pushPublishTimeout = 5 * time.Second
)

// PushPayload is the system-level notification body.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

// PushChannel publishes system notifications to a Pub/Sub topic. Without a
// publisher or permission it does nothing.
type PushChannel struct {
	publisher pubsub.Publisher
	permitted bool
}

func NewPushChannel(publisher pubsub.Publisher, permitted bool) *PushChannel {
	return &PushChannel{publisher: publisher, permitted: permitted}
}

// Enabled reports whether Send will attempt a publish.
func (p *PushChannel) Enabled() bool {
	return p != nil && p.permitted && p.publisher != nil
}

// Send publishes one notification and waits for the server ack.
func (p *PushChannel) Send(ctx context.Context, title, body string) error {
	if !p.Enabled() {
		return nil
	}
	data, err := json.Marshal(PushPayload{Title: title, Body: body, Tag: pushTag})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, pushPublishTimeout)
	defer cancel()
	result := p.publisher.Publish(publishCtx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"tag": pushTag},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish push notification: %w", err)
	}
	return nil
}
