package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/medicarehub-backend/api/middleware"
	"github.com/angelmondragon/medicarehub-backend/api/routes"
	"github.com/angelmondragon/medicarehub-backend/internal/analytics"
	"github.com/angelmondragon/medicarehub-backend/internal/bootstrap"
	"github.com/angelmondragon/medicarehub-backend/internal/credentials"
	"github.com/angelmondragon/medicarehub-backend/internal/messaging"
	"github.com/angelmondragon/medicarehub-backend/internal/notifications"
	"github.com/angelmondragon/medicarehub-backend/internal/orders"
	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/internal/shell"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	"github.com/angelmondragon/medicarehub-backend/internal/users"
	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	"github.com/angelmondragon/medicarehub-backend/pkg/env"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	params, err := buildRouterParams(ctx, cfg, logg, stack)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Port(cfg.App.Port)
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"remote_enabled": stack.Syncing.RemoteEnabled(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return stack.RunBridge(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server shut down gracefully")
}

func buildRouterParams(ctx context.Context, cfg *config.Config, logg *logger.Logger, stack *bootstrap.Stack) (routes.Params, error) {
	storeRepo, err := stores.NewRepository(stack.Syncing, logg)
	if err != nil {
		return routes.Params{}, err
	}
	storeSvc, err := stores.NewService(storeRepo)
	if err != nil {
		return routes.Params{}, err
	}

	notifRepo, err := notifications.NewRepository(stack.Syncing, logg)
	if err != nil {
		return routes.Params{}, err
	}
	notifSvc, err := notifications.NewService(notifRepo)
	if err != nil {
		return routes.Params{}, err
	}

	orderRepo, err := orders.NewRepository(stack.Syncing, logg)
	if err != nil {
		return routes.Params{}, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Stores:   storeRepo,
		Notifier: notifSvc,
		Logger:   logg,
	})
	if err != nil {
		return routes.Params{}, err
	}

	userRepo, err := users.NewRepository(stack.Syncing, stack.Local, logg)
	if err != nil {
		return routes.Params{}, err
	}
	userSvc, err := users.NewService(userRepo)
	if err != nil {
		return routes.Params{}, err
	}

	creds, err := credentials.NewService(stack.Device, models.AdminCredential{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		return routes.Params{}, err
	}

	report, err := analytics.NewService(orderSvc, storeSvc)
	if err != nil {
		return routes.Params{}, err
	}

	params := routes.Params{
		Config:        cfg,
		Logger:        logg,
		Local:         stack.LocalDB,
		Gatherer:      stack.Registry,
		Sessions:      session.NewRegistry(stack.Device),
		Stores:        storeSvc,
		Orders:        orderSvc,
		Users:         userSvc,
		Credentials:   creds,
		Notifications: notifSvc,
		Analytics:     report,
		Linker:        messaging.NewLinker(cfg.Messaging.Host),
	}
	// a typed nil in an interface field would defeat the nil checks downstream
	if stack.RemotePinger != nil {
		params.Remote = stack.RemotePinger
	}
	if stack.Redis != nil {
		params.RateLimiter = middleware.WindowLimiter(stack.Redis)
	}

	if cfg.Shell.AssetDir != "" {
		static, err := shellHandler(ctx, cfg, logg)
		if err != nil {
			return routes.Params{}, err
		}
		params.Static = static
	}
	return params, nil
}

func shellHandler(ctx context.Context, cfg *config.Config, logg *logger.Logger) (http.Handler, error) {
	files := http.FileServer(http.Dir(cfg.Shell.AssetDir))
	cache := shell.New(shell.Options{
		Name:   shell.DefaultName,
		Assets: cfg.Shell.Assets,
		Origin: cfg.Shell.Origin,
		Logger: logg,
	})
	if err := cache.Install(ctx, files); err != nil {
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"cache":  cache.Name(),
		"assets": cache.Len(),
	}), "app shell cached")
	return cache.Middleware(files), nil
}
