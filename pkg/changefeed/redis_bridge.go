package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Transport is the redis surface the bridge needs.
type Transport interface {
	Publish(ctx context.Context, channel string, message any) error
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
}

// RedisBridge mirrors local changes to a redis channel so that other processes
// sharing the same remote see them, and replays foreign changes onto the bus.
type RedisBridge struct {
	transport Transport
	channel   string
	bus       *Bus
	origin    string
	logg      *logger.Logger
}

func NewRedisBridge(transport Transport, channel string, bus *Bus, logg *logger.Logger) (*RedisBridge, error) {
	if transport == nil {
		return nil, fmt.Errorf("redis transport required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel required")
	}
	if bus == nil {
		return nil, fmt.Errorf("bus required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisBridge{
		transport: transport,
		channel:   channel,
		bus:       bus,
		origin:    uuid.NewString(),
		logg:      logg,
	}, nil
}

// Origin identifies this process on the shared channel.
func (r *RedisBridge) Origin() string {
	return r.origin
}

// Publish signals local subscribers, then forwards the change to redis.
// Redis failures are logged only.
func (r *RedisBridge) Publish(ctx context.Context, change Change) {
	r.bus.Publish(ctx, change)

	change.Origin = r.origin
	payload, err := json.Marshal(change)
	if err != nil {
		r.logg.Error(ctx, "encode changefeed payload", err)
		return
	}
	if err := r.transport.Publish(ctx, r.channel, string(payload)); err != nil {
		r.logg.Warn(r.logg.WithError(ctx, err), "changefeed redis publish failed")
	}
}

// Run relays foreign changes until ctx is done.
func (r *RedisBridge) Run(ctx context.Context) error {
	sub, err := r.transport.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisBridge) handle(ctx context.Context, payload string) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		r.logg.Warn(r.logg.WithError(ctx, err), "dropping malformed changefeed payload")
		return
	}
	if change.Origin == r.origin || change.Key == "" {
		return
	}
	r.bus.Publish(ctx, change)
}
