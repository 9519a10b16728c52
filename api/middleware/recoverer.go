package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/internal/session"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. The log entry carries
// the tab session and store the request touched, since session state is the
// usual suspect when a handler crashes.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := pkgerrors.Wrap(pkgerrors.CodeInternal,
					fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec), "request handler crashed")
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					}
					if id := r.Header.Get(session.HeaderSessionID); id != "" {
						fields["session_id"] = id
					}
					if storeID := chi.URLParam(r, "storeId"); storeID != "" {
						fields["store_id"] = storeID
					}
					ctx = logg.WithFields(ctx, fields)
				}
				responses.WriteError(ctx, logg, w, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
