package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

const envHeader = "X-MediCare-Env"

// Pinger is satisfied by the local database and every remote driver.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady requires the local cache. The remote is reported but never
// fails readiness; the app keeps serving from the cache without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, local Pinger, remote Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if local == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "local cache not configured"))
			return
		}
		if err := local.Ping(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "local cache unavailable"))
			return
		}

		remoteStatus := "disabled"
		if remote != nil {
			remoteStatus = "ok"
			if err := remote.Ping(ctx); err != nil {
				remoteStatus = "unavailable"
				if logg != nil {
					logg.Warn(logg.WithError(ctx, err), "remote store ping failed")
				}
			}
		}

		responses.WriteSuccess(w, map[string]string{
			"status": "ready",
			"local":  "ok",
			"remote": remoteStatus,
		})
	}
}
