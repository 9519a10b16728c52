package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func requireSilent(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBusFansOut(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(1)
	b, cancelB := bus.Subscribe(1)
	defer cancelB()

	bus.Publish(context.Background(), Change{Key: "medicare_orders"})
	require.Equal(t, "medicare_orders", receive(t, a).Key)
	require.Equal(t, "medicare_orders", receive(t, b).Key)

	cancelA()
	cancelA()
	_, open := <-a
	require.False(t, open)
	require.Equal(t, 1, bus.Subscribers())
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(context.Background(), Change{Key: "one"})
	bus.Publish(context.Background(), Change{Key: "two"})

	require.Equal(t, "one", receive(t, ch).Key)
	requireSilent(t, ch)
}

type fakeTransport struct {
	published []string
	err       error
}

func (f *fakeTransport) Publish(_ context.Context, _ string, message any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, message.(string))
	return nil
}

func (f *fakeTransport) Subscribe(context.Context, ...string) (*goredis.PubSub, error) {
	return nil, errors.New("not supported in tests")
}

func TestRedisBridgePublishesLocallyAndRemotely(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	transport := &fakeTransport{}
	bridge, err := NewRedisBridge(transport, "mch:changefeed", bus, nil)
	require.NoError(t, err)

	bridge.Publish(context.Background(), Change{Key: "medicare_notis_data", Value: "[]"})

	require.Equal(t, "medicare_notis_data", receive(t, ch).Key)
	require.Len(t, transport.published, 1)

	var sent Change
	require.NoError(t, json.Unmarshal([]byte(transport.published[0]), &sent))
	require.Equal(t, bridge.Origin(), sent.Origin)
}

func TestRedisBridgeSwallowsTransportErrors(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bridge, err := NewRedisBridge(&fakeTransport{err: errors.New("down")}, "c", bus, nil)
	require.NoError(t, err)

	bridge.Publish(context.Background(), Change{Key: "medicare_orders"})
	require.Equal(t, "medicare_orders", receive(t, ch).Key)
}

func TestRedisBridgeHandleSkipsOwnOrigin(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bridge, err := NewRedisBridge(&fakeTransport{}, "c", bus, nil)
	require.NoError(t, err)
	ctx := context.Background()

	own, _ := json.Marshal(Change{Key: "medicare_orders", Origin: bridge.Origin()})
	bridge.handle(ctx, string(own))
	requireSilent(t, ch)

	bridge.handle(ctx, "{garbage")
	requireSilent(t, ch)

	foreign, _ := json.Marshal(Change{Key: "medicare_orders", Origin: "other-process"})
	bridge.handle(ctx, string(foreign))
	require.Equal(t, "other-process", receive(t, ch).Origin)
}

func TestNewRedisBridgeValidates(t *testing.T) {
	_, err := NewRedisBridge(nil, "c", NewBus(), nil)
	require.Error(t, err)
	_, err = NewRedisBridge(&fakeTransport{}, "", NewBus(), nil)
	require.Error(t, err)
	_, err = NewRedisBridge(&fakeTransport{}, "c", nil, nil)
	require.Error(t, err)
}
