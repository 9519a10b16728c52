package middleware

import (
	"net/http"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// RequireAdmin rejects requests whose tab has no admin login.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
				return
			}
			admin, err := sess.AdminLoggedIn(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
				return
			}
			if !admin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin login required"))
				return
			}
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithActorRole(ctx, "admin")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStoreOrAdmin admits a logged-in store or an admin. Ownership of the
// addressed resource is checked by the controller.
func RequireStoreOrAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
				return
			}
			ctx := r.Context()
			admin, err := sess.AdminLoggedIn(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
				return
			}
			if admin {
				if logg != nil {
					ctx = logg.WithActorRole(ctx, "admin")
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			storeID, ok, err := sess.LoggedStore(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session"))
				return
			}
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store login required"))
				return
			}
			if logg != nil {
				ctx = logg.WithActorRole(ctx, "store")
				ctx = logg.WithStoreID(ctx, storeID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
