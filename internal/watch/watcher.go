// Package watch drives dashboard refreshes from two triggers: storage-change
// signals and a fixed-interval poll that compares record counts.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/changefeed"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
)

const DefaultInterval = 2 * time.Second

// Event describes one refresh.
type Event struct {
	Trigger string
	Observation
}

// Params configure a Watcher.
type Params struct {
	Name     string
	Interval time.Duration
	// Count returns the current number of records the controller shows.
	Count func(ctx context.Context) (int, error)
	// Refresh re-renders from current state. It runs on every trigger and must
	// be safe to repeat.
	Refresh func(ctx context.Context, ev Event) error
	// OnGrowth runs after Refresh when the count went up.
	OnGrowth func(ctx context.Context, ev Event)
	Signals  <-chan changefeed.Change
	// Keys filters Signals; changes to other keys are ignored.
	Keys    []string
	State   *CountState
	Metrics *metrics.PollMetrics
	Logger  *logger.Logger
}

// Watcher owns one controller's change detection loop.
type Watcher struct {
	name     string
	interval time.Duration
	count    func(ctx context.Context) (int, error)
	refresh  func(ctx context.Context, ev Event) error
	onGrowth func(ctx context.Context, ev Event)
	signals  <-chan changefeed.Change
	keys     map[string]struct{}
	state    *CountState
	metrics  *metrics.PollMetrics
	logg     *logger.Logger
}

func New(p Params) (*Watcher, error) {
	if p.Count == nil {
		return nil, fmt.Errorf("count func required")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("watcher name required")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	state := p.State
	if state == nil {
		state = &CountState{}
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	keys := make(map[string]struct{}, len(p.Keys))
	for _, k := range p.Keys {
		keys[k] = struct{}{}
	}
	return &Watcher{
		name:     p.Name,
		interval: interval,
		count:    p.Count,
		refresh:  p.Refresh,
		onGrowth: p.OnGrowth,
		signals:  p.Signals,
		keys:     keys,
		state:    state,
		metrics:  p.Metrics,
		logg:     logg,
	}, nil
}

// State exposes the count state so callers can inspect the last render.
func (w *Watcher) State() *CountState {
	return w.state
}

// Run refreshes once, then on every tick and every recognized signal until
// ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	ctx = w.logg.WithField(ctx, "watcher", w.name)
	w.trigger(ctx, metrics.TriggerPoll)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	signals := w.signals
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.trigger(ctx, metrics.TriggerPoll)
		case change, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			if !w.recognizes(change.Key) {
				continue
			}
			w.trigger(ctx, metrics.TriggerSignal)
		}
	}
}

// Refresh runs one refresh cycle for trigger and returns what it observed.
func (w *Watcher) Refresh(ctx context.Context, trigger string) (Event, error) {
	start := time.Now()
	defer func() { w.metrics.ObserveDuration(w.name, time.Since(start)) }()

	n, err := w.count(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("count %s: %w", w.name, err)
	}
	ev := Event{Trigger: trigger, Observation: w.state.Observe(n)}
	w.metrics.IncRefresh(w.name, trigger)

	if w.refresh != nil {
		if err := w.refresh(ctx, ev); err != nil {
			return ev, fmt.Errorf("refresh %s: %w", w.name, err)
		}
	}
	if ev.Grew && w.onGrowth != nil {
		w.onGrowth(ctx, ev)
	}
	return ev, nil
}

func (w *Watcher) trigger(ctx context.Context, trigger string) {
	if _, err := w.Refresh(ctx, trigger); err != nil {
		w.logg.Error(w.logg.WithField(ctx, "trigger", trigger), "watch refresh failed", err)
	}
}

func (w *Watcher) recognizes(key string) bool {
	if len(w.keys) == 0 {
		return true
	}
	_, ok := w.keys[key]
	return ok
}
