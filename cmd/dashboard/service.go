package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/watch"
	"github.com/angelmondragon/medicarehub-backend/pkg/changefeed"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

const (
	watcherOrders        = "orders"
	watcherNotifications = "notifications"
	signalBuffer         = 16
)

type orderLister interface {
	List(ctx context.Context) ([]models.Order, error)
	ByStore(ctx context.Context, storeID int) ([]models.Order, error)
}

type inbox interface {
	ListFor(ctx context.Context, role enums.NotificationRole, target string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, role enums.NotificationRole, target string) (int, error)
}

type alerter interface {
	Show(ctx context.Context, title, message string, severity enums.NotificationType) notifications.Banner
}

// snapshotter hands back the local copy of a collection at once and the
// remote copy later on another goroutine, when one is attached.
type snapshotter interface {
	Snapshot(ctx context.Context, collection string, onFresh func([]docstore.Document)) ([]docstore.Document, error)
}

type subscriber interface {
	Subscribe(buffer int) (<-chan changefeed.Change, func())
}

// Scope picks whose orders and inbox the dashboard follows. StoreID is
// ignored for the admin role.
type Scope struct {
	Role    enums.NotificationRole
	StoreID int
}

func (s Scope) target() string {
	if s.Role == enums.NotificationRoleAdmin {
		return enums.AdminTarget
	}
	return strconv.Itoa(s.StoreID)
}

type serviceParams struct {
	Scope         Scope
	Interval      time.Duration
	Orders        orderLister
	Notifications inbox
	Alerts        alerter
	Feed          subscriber
	// Snapshots primes the orders panel before the first poll; optional.
	Snapshots snapshotter
	Metrics   *metrics.PollMetrics
	Logger        *logger.Logger
}

// Service runs one watcher per dashboard panel and raises an alert whenever
// a panel's count grows.
type Service struct {
	scope         Scope
	orders        orderLister
	notifications inbox
	alerts        alerter
	snapshots     snapshotter
	logg          *logger.Logger

	watchers []*watch.Watcher
	cancels  []func()
}

func NewService(p serviceParams) (*Service, error) {
	if p.Orders == nil || p.Notifications == nil || p.Alerts == nil {
		return nil, fmt.Errorf("orders, notifications and alerts are required")
	}
	switch p.Scope.Role {
	case enums.NotificationRoleAdmin:
	case enums.NotificationRoleStore:
		if p.Scope.StoreID <= 0 {
			return nil, fmt.Errorf("store scope needs a store id")
		}
	default:
		return nil, fmt.Errorf("unsupported dashboard role %q", p.Scope.Role)
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	s := &Service{
		scope:         p.Scope,
		orders:        p.Orders,
		notifications: p.Notifications,
		alerts:        p.Alerts,
		snapshots:     p.Snapshots,
		logg:          logg,
	}

	panels := []struct {
		name     string
		key      string
		count    func(context.Context) (int, error)
		onGrowth func(context.Context, watch.Event)
	}{
		{watcherOrders, docstore.KeyOrders, s.countOrders, s.alertOrders},
		{watcherNotifications, docstore.KeyNotifications, s.countUnread, s.alertNotification},
	}
	for _, panel := range panels {
		var signals <-chan changefeed.Change
		if p.Feed != nil {
			ch, cancel := p.Feed.Subscribe(signalBuffer)
			signals = ch
			s.cancels = append(s.cancels, cancel)
		}
		name := panel.name
		w, err := watch.New(watch.Params{
			Name:     name,
			Interval: p.Interval,
			Count:    panel.count,
			Refresh: func(ctx context.Context, ev watch.Event) error {
				s.render(ctx, name, ev)
				return nil
			},
			OnGrowth: panel.onGrowth,
			Signals:  signals,
			Keys:     []string{panel.key},
			Metrics:  p.Metrics,
			Logger:   logg,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.watchers = append(s.watchers, w)
	}
	return s, nil
}

// Run blocks until ctx is canceled or a watcher fails.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"role":   string(s.scope.Role),
		"target": s.scope.target(),
	})
	s.logg.Info(ctx, "dashboard watching")
	s.prime(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.watchers {
		w := w
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}

// Close drops the changefeed subscriptions.
func (s *Service) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// prime renders the orders panel from the local cache and, once the remote
// copy arrives, alerts on orders the remote holds that this device has not
// seen yet.
func (s *Service) prime(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	// onFresh may run before the local count below is known
	primed := make(chan int, 1)
	docs, err := s.snapshots.Snapshot(ctx, docstore.CollectionOrders, func(fresh []docstore.Document) {
		local := <-primed
		remote := s.countScoped(fresh)
		s.logg.Info(s.logg.WithField(ctx, "remote_count", remote), "dashboard remote snapshot arrived")
		if remote > local {
			s.alertOrders(ctx, watch.Event{
				Trigger:     "snapshot",
				Observation: watch.Observation{Count: remote, Previous: local, Changed: true, Grew: true},
			})
		}
	})
	if err != nil {
		s.logg.Error(ctx, "prime orders panel", err)
		return
	}
	local := s.countScoped(docs)
	primed <- local
	s.render(ctx, watcherOrders, watch.Event{
		Trigger:     "snapshot",
		Observation: watch.Observation{Count: local, First: true},
	})
}

func (s *Service) countScoped(docs []docstore.Document) int {
	items, _ := docstore.DecodeAll[models.Order](docs)
	if s.scope.Role == enums.NotificationRoleAdmin {
		return len(items)
	}
	n := 0
	for _, o := range items {
		if o.StoreID == s.scope.StoreID {
			n++
		}
	}
	return n
}

func (s *Service) scopedOrders(ctx context.Context) ([]models.Order, error) {
	if s.scope.Role == enums.NotificationRoleAdmin {
		return s.orders.List(ctx)
	}
	return s.orders.ByStore(ctx, s.scope.StoreID)
}

func (s *Service) countOrders(ctx context.Context) (int, error) {
	items, err := s.scopedOrders(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) countUnread(ctx context.Context) (int, error) {
	return s.notifications.UnreadCount(ctx, s.scope.Role, s.scope.target())
}

func (s *Service) alertOrders(ctx context.Context, ev watch.Event) {
	added := ev.Count - ev.Previous
	message := "1 new order received"
	if added > 1 {
		message = fmt.Sprintf("%d new orders received", added)
	}
	s.alerts.Show(ctx, "New order", message, enums.NotificationTypeInfo)
}

func (s *Service) alertNotification(ctx context.Context, _ watch.Event) {
	items, err := s.notifications.ListFor(ctx, s.scope.Role, s.scope.target())
	if err != nil {
		s.logg.Error(ctx, "load latest notification", err)
		return
	}
	for _, n := range items {
		if n.Read {
			continue
		}
		s.alerts.Show(ctx, n.Title, n.Message, n.Type)
		return
	}
}

func (s *Service) render(ctx context.Context, name string, ev watch.Event) {
	if !ev.First && !ev.Changed {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"panel":    name,
		"count":    ev.Count,
		"previous": ev.Previous,
		"trigger":  ev.Trigger,
	}), "dashboard panel updated")
}
