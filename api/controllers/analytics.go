package controllers

import (
	"net/http"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

func AnalyticsReport(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		report, err := svc.Report(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
