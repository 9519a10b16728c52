package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/medicarehub-backend/pkg/changefeed"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
)

func TestCountStateFirstObservationIsNotGrowth(t *testing.T) {
	var s CountState

	first := s.Observe(3)
	require.True(t, first.First)
	require.False(t, first.Grew)
	require.False(t, first.Changed)

	same := s.Observe(3)
	require.False(t, same.Changed)

	grew := s.Observe(5)
	require.True(t, grew.Grew)
	require.Equal(t, 3, grew.Previous)

	shrank := s.Observe(4)
	require.True(t, shrank.Changed)
	require.False(t, shrank.Grew)

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, 4, last)
}

func TestRefreshIsIdempotentAndFiresGrowthOnce(t *testing.T) {
	var count atomic.Int64
	count.Store(1)
	var growth atomic.Int32
	var renders atomic.Int32

	w, err := New(Params{
		Name:  "orders",
		Count: func(context.Context) (int, error) { return int(count.Load()), nil },
		Refresh: func(context.Context, Event) error {
			renders.Add(1)
			return nil
		},
		OnGrowth: func(context.Context, Event) { growth.Add(1) },
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = w.Refresh(ctx, metrics.TriggerPoll)
	require.NoError(t, err)
	count.Store(2)
	ev, err := w.Refresh(ctx, metrics.TriggerSignal)
	require.NoError(t, err)
	require.True(t, ev.Grew)
	ev, err = w.Refresh(ctx, metrics.TriggerPoll)
	require.NoError(t, err)
	require.False(t, ev.Grew)

	require.Equal(t, int32(3), renders.Load())
	require.Equal(t, int32(1), growth.Load())
}

func TestRefreshReportsCountErrors(t *testing.T) {
	w, err := New(Params{
		Name:  "orders",
		Count: func(context.Context) (int, error) { return 0, errors.New("cache unreadable") },
	})
	require.NoError(t, err)

	_, err = w.Refresh(context.Background(), metrics.TriggerPoll)
	require.Error(t, err)
	_, seen := w.State().Last()
	require.False(t, seen)
}

func TestRunReactsToRecognizedSignals(t *testing.T) {
	bus := changefeed.NewBus()
	signals, cancelSub := bus.Subscribe(8)
	defer cancelSub()

	var mu sync.Mutex
	var triggers []string
	reg := prometheus.NewRegistry()

	w, err := New(Params{
		Name:     "store-dashboard",
		Interval: time.Hour,
		Count:    func(context.Context) (int, error) { return 0, nil },
		Refresh: func(_ context.Context, ev Event) error {
			mu.Lock()
			triggers = append(triggers, ev.Trigger)
			mu.Unlock()
			return nil
		},
		Signals: signals,
		Keys:    []string{"medicare_orders"},
		Metrics: metrics.NewPollMetrics(reg),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), triggers...)
	}
	require.Eventually(t, func() bool { return len(snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(ctx, changefeed.Change{Key: "medicare_stores"})
	bus.Publish(ctx, changefeed.Change{Key: "medicare_orders"})
	require.Eventually(t, func() bool { return len(snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{metrics.TriggerPoll, metrics.TriggerSignal}, snapshot())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	series, err := testutil.GatherAndCount(reg, "watch_refresh_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)
}

func TestRunPollsOnInterval(t *testing.T) {
	var calls atomic.Int32
	w, err := New(Params{
		Name:     "admin",
		Interval: 10 * time.Millisecond,
		Count: func(context.Context) (int, error) {
			calls.Add(1)
			return 1, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Params{Name: "x"})
	require.Error(t, err)
	_, err = New(Params{Count: func(context.Context) (int, error) { return 0, nil }})
	require.Error(t, err)
}
