package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
)

// ProviderClient is the minimal capability every lookup provider offers: a
// synchronous single-number lookup. Providers that can do more implement the
// wider interfaces; callers depend only on the capabilities they use.
type ProviderClient interface {
	Name() string
	Lookup(ctx context.Context, number string) (hlr.Result, error)
}

// AsyncProviderClient extends ProviderClient with asynchronous batch lookups
// whose results arrive later via webhook callbacks.
type AsyncProviderClient interface {
	ProviderClient

	// RegisterCallbackURL tells the provider where to post result batches
	// for subsequently submitted lookups.
	RegisterCallbackURL(ctx context.Context, callbackURL string) error

	// SubmitAsync submits a batch of numbers for asynchronous lookup.
	SubmitAsync(ctx context.Context, numbers []string) (*SubmitResult, error)

	// ProcessCallback parses one inbound webhook body, normalizes its
	// results and reconciles them against the request's pending-id state.
	ProcessCallback(ctx context.Context, store cache.Store, uniqueID string, body []byte) (*hlr.CallbackOutcome, error)
}

// SubmitResult reports a provider's acceptance decision for one batch.
// ResultIDs are the provider-assigned ids under which results will be
// delivered; they seed the request's pending-id entry.
type SubmitResult struct {
	Accepted  []string
	Rejected  []string
	ResultIDs []string
}

// ResultFunc receives normalized results as they become available: cache hits
// at submission time, provider results as callbacks arrive.
type ResultFunc func(results []hlr.Result)

// DoneFunc is invoked when a request reaches a terminal state, successfully
// or not. A non-nil return signals the callback itself failed; the failure is
// reported back through a second invocation with that error, so
// implementations must tolerate being called twice for the same uniqueID.
type DoneFunc func(err error, results []hlr.Result, uniqueID string) error

// Options assembles a lookup Service. Provider may additionally implement
// AsyncProviderClient; without it only synchronous lookups are served.
type Options struct {
	Provider        ProviderClient
	Store           cache.Store
	Timers          *cache.TimerStore // optional; a private store is created when nil
	Timeout         time.Duration     // how long to wait for callbacks; default 2m
	ResultTTL       time.Duration     // cached result lifetime; default cache.DefaultResultTTL
	CallbackURL     string            // base URL providers post results to
	CallbackIDParam string            // query parameter carrying the request id; default "unique_id"
	OnResult        ResultFunc
	OnDone          DoneFunc
	Logger          *zap.Logger
}
