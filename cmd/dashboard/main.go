package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/medicarehub-backend/internal/bootstrap"
	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/orders"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
	"github.com/angelmondragon/medicarehub-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "dashboard"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	role := flag.String("role", string(enums.NotificationRoleAdmin), "dashboard scope: admin|store")
	storeID := flag.Int("store", 0, "store id (for -role=store)")
	chimeOut := flag.String("chime-out", "", "file the alert cue is written to; empty keeps it silent")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address when set")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "dashboard",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"role": *role, "store_id": *storeID},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Open(ctx, cfg, logg)
	requireResource(ctx, logg, "storage", err)
	defer func() {
		if err := stack.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	notifier, closeNotifier, err := buildNotifier(ctx, cfg, logg, *chimeOut)
	requireResource(ctx, logg, "notifier", err)
	defer closeNotifier()

	orderSvc, notifSvc, err := panelSources(stack.Local, logg)
	requireResource(ctx, logg, "panels", err)

	svc, err := NewService(serviceParams{
		Scope:         Scope{Role: enums.NotificationRole(*role), StoreID: *storeID},
		Interval:      cfg.Sync.PollInterval,
		Orders:        orderSvc,
		Notifications: notifSvc,
		Alerts:        notifier,
		Feed:          stack.Bus,
		Snapshots:     stack.Syncing,
		Metrics:       metrics.NewPollMetrics(stack.Registry),
		Logger:        logg,
	})
	requireResource(ctx, logg, "dashboard", err)
	defer svc.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error { return stack.RunBridge(gctx) })
	if *metricsAddr != "" {
		server := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "dashboard stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "dashboard shutting down gracefully")
}

// panelSources builds the services the panels poll. Polling reads the device
// cache so counts follow local writes the remote may not have accepted.
func panelSources(local docstore.Store, logg *logger.Logger) (orders.Service, notifications.Service, error) {
	storeRepo, err := stores.NewRepository(local, logg)
	if err != nil {
		return nil, nil, err
	}
	notifRepo, err := notifications.NewRepository(local, logg)
	if err != nil {
		return nil, nil, err
	}
	notifSvc, err := notifications.NewService(notifRepo)
	if err != nil {
		return nil, nil, err
	}
	orderRepo, err := orders.NewRepository(local, logg)
	if err != nil {
		return nil, nil, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{Repo: orderRepo, Stores: storeRepo, Notifier: notifSvc, Logger: logg})
	if err != nil {
		return nil, nil, err
	}
	return orderSvc, notifSvc, nil
}

// buildNotifier wires the chime, the push channel and the banner board. The
// returned func releases the chime sink and the pubsub client.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, chimeOut string) (*notifications.Notifier, func(), error) {
	var closers []func() error

	var sink io.Writer
	if chimeOut != "" {
		f, err := os.OpenFile(chimeOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open chime sink: %w", err)
		}
		sink = f
		closers = append(closers, f.Close)
	}

	var push *notifications.PushChannel
	if cfg.Push.Permitted() {
		client, err := pubsub.NewClient(ctx, cfg.Push, logg)
		if err != nil {
			logg.Warn(logg.WithError(ctx, err), "push channel unavailable, alerts stay local")
		} else {
			push = notifications.NewPushChannel(client.PushPublisher(), true)
			closers = append(closers, client.Close)
		}
	}

	banners := notifications.NewBannerBoard(cfg.Sync.BannerTTL, func(b *notifications.Banner) {
		if b == nil {
			logg.Debug(ctx, "banner cleared")
			return
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"banner_id": b.ID,
			"severity":  string(b.Severity),
			"title":     b.Title,
			"message":   b.Message,
		}), "banner shown")
	})

	var system notifications.SystemChannel
	if push != nil {
		system = push
	}
	notifier := notifications.NewNotifier(notifications.NewChime(sink), system, banners, logg)

	release := func() {
		banners.Stop()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logg.Error(context.Background(), "error releasing notifier", err)
			}
		}
	}
	return notifier, release, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
