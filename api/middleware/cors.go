package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/medicarehub-backend/internal/session"
)

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderSessionID, "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{session.HeaderSessionID, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
