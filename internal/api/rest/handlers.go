// Package rest exposes the lookup service over HTTP: async batch submission,
// synchronous single-number lookups, the provider webhook endpoint and the
// usual health/metrics surface.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Handlers serves the lookup API endpoints.
type Handlers struct {
	svc    *lookup.Service
	store  cache.Store
	logger *zap.Logger
}

func NewHandlers(svc *lookup.Service, store cache.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, store: store, logger: logger}
}

type asyncLookupRequest struct {
	Numbers  []string `json:"numbers"`
	UniqueID string   `json:"uniqueId,omitempty"`
}

// HandleAsyncLookup accepts a batch of numbers for asynchronous lookup.
// Responds 200 when the batch completed immediately (all cached or all
// rejected), 202 when provider callbacks are pending.
func (h *Handlers) HandleAsyncLookup(w http.ResponseWriter, r *http.Request) {
	var req asyncLookupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.writeError(w, apperrors.NewInvalidArgumentError("request body must be valid JSON").WithCause(err))
		return
	}

	reply, err := h.svc.AsyncLookup(r.Context(), req.Numbers, req.UniqueID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	outcome := "pending"
	status := http.StatusAccepted
	if reply.Done {
		outcome = "done"
		status = http.StatusOK
	}
	lookupsSubmitted.WithLabelValues(h.svc.ProviderName(), outcome).Inc()
	numbersFromCache.WithLabelValues(h.svc.ProviderName()).Add(float64(len(reply.FromCache)))
	numbersRejected.WithLabelValues(h.svc.ProviderName()).Add(float64(len(reply.Rejected)))

	h.writeJSON(w, status, reply)
}

type syncLookupResponse struct {
	Result    hlr.Result `json:"result"`
	FromCache bool       `json:"fromCache"`
}

// HandleSyncLookup performs a synchronous lookup of one path-supplied number.
func (h *Handlers) HandleSyncLookup(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	result, fromCache, err := h.svc.Lookup(r.Context(), number)
	if err != nil {
		h.writeError(w, err)
		return
	}

	source := "provider"
	if fromCache {
		source = "cache"
	}
	syncLookups.WithLabelValues(h.svc.ProviderName(), source).Inc()

	h.writeJSON(w, http.StatusOK, syncLookupResponse{Result: result, FromCache: fromCache})
}

// HandleHealth probes the cache backend and reports service health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.Exists(ctx, "healthz"); err != nil {
		h.logger.Warn("health probe failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"cache":  "unreachable",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"provider": h.svc.ProviderName(),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	if err := writeJSON(w, status, body); err != nil {
		h.logger.Error("writing response failed", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	h.logger.Warn("request failed", zap.Error(err))
	h.writeJSON(w, apperrors.GetStatusCode(err), errorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func errorBody(err error) map[string]interface{} {
	code := "INTERNAL_ERROR"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": err.Error(),
		},
	}
}
