package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

// NewRouter assembles the HTTP routing table with the standard middleware
// stack applied.
func NewRouter(cfg *config.Config, svc *lookup.Service, store cache.Store, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers := NewHandlers(svc, store, logger)
	webhook := NewWebhookHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/lookups", handlers.HandleAsyncLookup)
	mux.HandleFunc("GET /api/v1/hlr/{number}", handlers.HandleSyncLookup)
	mux.Handle("POST /api/v1/callbacks/hlr", webhook)
	mux.HandleFunc("GET /healthz", handlers.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return chain(mux,
		recoveryMiddleware(logger),
		rateLimitMiddleware(cfg.Server.RateLimit),
		loggingMiddleware(logger),
	)
}
