package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/wishbridge-backend/pkg/config"
)

const tokenHeader = "X-WB-Token"

var devCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS applies the configured origin policy. An empty list or "*" in dev falls back to the local frontends.
func CORS(cfg config.CORSConfig, appCfg config.AppConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 || (appCfg.IsDev() && len(origins) == 1 && origins[0] == "*") {
		origins = devCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tokenHeader, "Idempotency-Key", "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{tokenHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
