package rest

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

type contextKey string

const contextKeyCallbackOutcome contextKey = "callback_outcome"

// CallbackOutcomeFromContext returns the reconciled outcome a WebhookHandler
// attached for a wrapped next handler.
func CallbackOutcomeFromContext(ctx context.Context) (*hlr.CallbackOutcome, bool) {
	outcome, ok := ctx.Value(contextKeyCallbackOutcome).(*hlr.CallbackOutcome)
	return outcome, ok
}

// WebhookHandler reconciles inbound provider callbacks against pending
// lookup requests.
//
// The HTTP response is always written before any caller callback runs, so
// the provider's retry semantics stay correct even when downstream
// bookkeeping fails afterwards. A failure to write the response supersedes
// whatever error triggered it: an unacknowledged webhook may be redelivered,
// which matters more than the original fault.
// SendFunc writes one HTTP response with the given status and JSON body.
type SendFunc func(w http.ResponseWriter, statusCode int, body interface{}) error

type WebhookHandler struct {
	svc           *lookup.Service
	send          SendFunc
	writeResponse bool
	next          http.Handler
	logger        *zap.Logger
}

// WebhookOption customizes a WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithSend replaces the default JSON response writer.
func WithSend(send SendFunc) WebhookOption {
	return func(h *WebhookHandler) { h.send = send }
}

// WithoutResponseWriting leaves response writing to a wrapped next handler.
func WithoutResponseWriting() WebhookOption {
	return func(h *WebhookHandler) { h.writeResponse = false }
}

// WithNext invokes next after successful reconciliation, with the decoded
// outcome attached to the request context.
func WithNext(next http.Handler) WebhookOption {
	return func(h *WebhookHandler) { h.next = next }
}

func NewWebhookHandler(svc *lookup.Service, logger *zap.Logger, opts ...WebhookOption) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebhookHandler{
		svc:           svc,
		writeResponse: true,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idParam := h.svc.CallbackIDParam()
	uniqueID := r.URL.Query().Get(idParam)
	if uniqueID == "" {
		err := apperrors.NewInvalidArgumentError("missing " + idParam + " query parameter")
		h.logger.Warn("webhook rejected", zap.Error(err))
		h.respond(w, http.StatusBadRequest, errorBody(err))
		// the request is done-with-error even though we cannot name it
		h.svc.ReportFailure(err, "")
		webhookBatches.WithLabelValues(h.svc.ProviderName(), "rejected").Inc()
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		err = apperrors.NewInvalidArgumentError("reading callback body failed").WithCause(err)
		h.respond(w, http.StatusBadRequest, errorBody(err))
		h.svc.ReportFailure(err, uniqueID)
		webhookBatches.WithLabelValues(h.svc.ProviderName(), "rejected").Inc()
		return
	}

	outcome, err := h.svc.ProcessBatch(r.Context(), uniqueID, body)
	if err != nil {
		// ProcessBatch already disarmed the timer and reported the failure
		h.logger.Warn("webhook reconciliation failed",
			zap.String("unique_id", uniqueID), zap.Error(err))
		if werr := h.respond(w, apperrors.GetStatusCode(err), errorBody(err)); werr != nil {
			h.svc.ReportFailure(apperrors.NewResponseWriteError(werr.Error()).WithCause(werr), uniqueID)
		}
		webhookBatches.WithLabelValues(h.svc.ProviderName(), "rejected").Inc()
		return
	}

	// acknowledge before callbacks run
	if werr := h.respond(w, http.StatusAccepted, outcome); werr != nil {
		h.logger.Error("writing webhook response failed",
			zap.String("unique_id", uniqueID), zap.Error(werr))
		h.svc.ReportFailure(apperrors.NewResponseWriteError(werr.Error()).WithCause(werr), uniqueID)
		return
	}

	if err := h.svc.Complete(r.Context(), uniqueID, outcome); err != nil {
		h.logger.Error("completing request failed",
			zap.String("unique_id", uniqueID), zap.Error(err))
	}
	webhookBatches.WithLabelValues(h.svc.ProviderName(), "accepted").Inc()

	if h.next != nil {
		ctx := context.WithValue(r.Context(), contextKeyCallbackOutcome, outcome)
		h.next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (h *WebhookHandler) respond(w http.ResponseWriter, status int, body interface{}) error {
	if !h.writeResponse {
		return nil
	}
	if h.send != nil {
		return h.send(w, status, body)
	}
	return writeJSON(w, status, body)
}
