package middleware

import (
	"net/http"

	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// Session resolves the X-Session-Id header to a tab scope, minting an id when
// the client sent none, and echoes it back so the client can reuse it.
func Session(registry *session.Registry, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, sess := registry.Resolve(r.Header.Get(session.HeaderSessionID))
			w.Header().Set(session.HeaderSessionID, id)

			ctx := session.WithSession(r.Context(), sess)
			ctx = withSessionID(ctx, id)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
