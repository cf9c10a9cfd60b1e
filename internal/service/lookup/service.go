// Package lookup orchestrates HLR phone number lookups end to end: cache
// consultation, provider submission, pending-id reconciliation of webhook
// callbacks, and timeout cleanup for requests whose callbacks never arrive.
package lookup

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/values"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
)

const (
	defaultTimeout         = 2 * time.Minute
	defaultCallbackIDParam = "unique_id"
)

// Service coordinates lookups against one provider and one result cache.
// Instances are independent; two services never share timer or callback
// state, even for the same provider.
type Service struct {
	provider        ProviderClient
	async           AsyncProviderClient // nil when the provider is sync-only
	store           cache.Store
	scheduler       *TimeoutScheduler
	timeout         time.Duration
	resultTTL       time.Duration
	callbackURL     string
	callbackIDParam string
	onResult        ResultFunc
	onDone          DoneFunc
	logger          *zap.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.NewInvalidArgumentError("provider must be supplied")
	}
	if opts.Store == nil {
		return nil, errors.NewInvalidArgumentError("store must be supplied")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = cache.DefaultResultTTL
	}
	if opts.CallbackIDParam == "" {
		opts.CallbackIDParam = defaultCallbackIDParam
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	async, _ := opts.Provider.(AsyncProviderClient)

	return &Service{
		provider:        opts.Provider,
		async:           async,
		store:           opts.Store,
		scheduler:       NewTimeoutScheduler(opts.Store, opts.Timers, logger),
		timeout:         opts.Timeout,
		resultTTL:       opts.ResultTTL,
		callbackURL:     opts.CallbackURL,
		callbackIDParam: opts.CallbackIDParam,
		onResult:        opts.OnResult,
		onDone:          opts.OnDone,
		logger:          logger,
	}, nil
}

// CallbackIDParam returns the query parameter name carrying the request
// correlation id on inbound webhooks.
func (s *Service) CallbackIDParam() string {
	return s.callbackIDParam
}

// ProviderName returns the name of the configured provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Lookup performs a synchronous single-number lookup, serving from cache when
// a fresh result exists. The second return reports whether the cache served
// the result.
func (s *Service) Lookup(ctx context.Context, number string) (hlr.Result, bool, error) {
	phone, err := values.NewPhoneNumber(number)
	if err != nil {
		return hlr.Result{}, false, errors.NewInvalidArgumentError(err.Error())
	}

	containers, err := cache.GetResultsForNumbers(ctx, s.store, []string{phone.E164()}, s.provider.Name())
	if err != nil {
		return hlr.Result{}, false, err
	}
	if containers[0].Found {
		return *containers[0].Result, true, nil
	}

	result, err := s.provider.Lookup(ctx, phone.E164())
	if err != nil {
		return hlr.Result{}, false, err
	}

	key, err := hlr.ProcessedKey(s.provider.Name(), phone.E164())
	if err != nil {
		return hlr.Result{}, false, err
	}
	if err := s.store.SetJSON(ctx, key, result, s.resultTTL); err != nil {
		// the caller still gets their result; only reuse is lost
		s.logger.Warn("caching lookup result failed",
			zap.String("number", phone.E164()), zap.Error(err))
	}
	return result, false, nil
}

// AsyncLookup submits a batch of numbers for asynchronous lookup. An empty
// uniqueID gets a generated UUID; callers may supply their own correlation id.
//
// Invalid numbers are rejected locally without provider contact. Numbers with
// a fresh cached result are served immediately through OnResult and never
// resubmitted; when the whole batch is cached the request completes without
// touching the provider. The remainder is submitted with a per-request
// callback URL, its result ids are tracked, and a timeout timer is armed so
// the request terminates even if callbacks never arrive.
//
// Accepted always contains the cached numbers; a number both cached and
// accepted upstream counts once. Mid-flow failures reject the call without
// rolling back earlier cache writes; timeout cleanup is the backstop.
func (s *Service) AsyncLookup(ctx context.Context, numbers []string, uniqueID string) (*hlr.LookupReply, error) {
	if s.async == nil {
		return nil, errors.NewInvalidArgumentError(
			"provider " + s.provider.Name() + " does not support asynchronous lookups")
	}
	if len(numbers) == 0 {
		return nil, errors.NewInvalidArgumentError("numbers must be a non-empty list")
	}

	if uniqueID == "" {
		uniqueID = uuid.NewString()
	}
	logger := s.logger.With(
		zap.String("provider", s.provider.Name()),
		zap.String("unique_id", uniqueID))

	valid := make([]string, 0, len(numbers))
	rejected := make([]string, 0)
	for _, n := range numbers {
		phone, err := values.NewPhoneNumber(n)
		if err != nil {
			rejected = append(rejected, n)
			continue
		}
		valid = append(valid, phone.E164())
	}
	if len(valid) == 0 {
		logger.Info("batch rejected entirely", zap.Int("numbers", len(numbers)))
		s.cleanStaleState(ctx, uniqueID)
		return &hlr.LookupReply{
			Done:      true,
			UniqueID:  uniqueID,
			Accepted:  []string{},
			Rejected:  rejected,
			FromCache: []string{},
		}, nil
	}

	containers, err := cache.GetResultsForNumbers(ctx, s.store, valid, s.provider.Name())
	if err != nil {
		return nil, err
	}

	fromCache := make([]string, 0, len(containers))
	cachedResults := make([]hlr.Result, 0, len(containers))
	pending := make([]string, 0, len(containers))
	for _, c := range containers {
		if c.Found {
			fromCache = append(fromCache, c.Number)
			cachedResults = append(cachedResults, *c.Result)
		} else {
			pending = append(pending, c.Number)
		}
	}

	if s.onResult != nil && len(cachedResults) > 0 {
		s.onResult(cachedResults)
	}

	if len(pending) == 0 {
		logger.Info("batch served entirely from cache", zap.Int("numbers", len(valid)))
		// a retried call with the same id may have left state behind
		s.cleanStaleState(ctx, uniqueID)
		if s.onDone != nil {
			if err := s.onDone(nil, cachedResults, uniqueID); err != nil {
				return nil, err
			}
		}
		return &hlr.LookupReply{
			Done:      true,
			UniqueID:  uniqueID,
			Accepted:  fromCache,
			Rejected:  rejected,
			FromCache: fromCache,
		}, nil
	}

	if err := s.async.RegisterCallbackURL(ctx, s.callbackURLFor(uniqueID)); err != nil {
		return nil, err
	}

	submitted, err := s.async.SubmitAsync(ctx, pending)
	if err != nil {
		return nil, err
	}

	if err := cache.CacheKeyIds(ctx, s.store, s.provider.Name(), uniqueID, submitted.ResultIDs); err != nil {
		return nil, err
	}

	accepted := unionStrings(fromCache, submitted.Accepted)
	rejected = append(rejected, submitted.Rejected...)

	if err := cache.StoreLookedUpNumbers(ctx, s.store, s.provider.Name(), uniqueID, accepted); err != nil {
		return nil, err
	}

	if err := s.scheduler.Start(s.provider.Name(), uniqueID, s.timeout, s.onDone); err != nil {
		return nil, err
	}

	logger.Info("async lookup submitted",
		zap.Int("pending", len(pending)),
		zap.Int("from_cache", len(fromCache)),
		zap.Int("rejected", len(rejected)))

	return &hlr.LookupReply{
		UniqueID:  uniqueID,
		Accepted:  accepted,
		Rejected:  rejected,
		FromCache: fromCache,
	}, nil
}

// Reconcile processes one inbound webhook batch for a request. Results are
// forwarded through OnResult as they arrive; once no unprocessed ids remain
// the request completes: the timeout is disarmed, the full result set is
// assembled and reported through OnDone, and the request's bookkeeping is
// cleared.
//
// HTTP callers needing to acknowledge the webhook before callbacks run use
// ProcessBatch and Complete separately; Reconcile is the two in sequence.
func (s *Service) Reconcile(ctx context.Context, uniqueID string, body []byte) (*hlr.CallbackOutcome, error) {
	outcome, err := s.ProcessBatch(ctx, uniqueID, body)
	if err != nil {
		return nil, err
	}
	if err := s.Complete(ctx, uniqueID, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// ProcessBatch reconciles one webhook batch against the request's pending-id
// state without invoking any caller callbacks. A failure disarms the timeout
// and is reported through OnDone before being returned.
func (s *Service) ProcessBatch(ctx context.Context, uniqueID string, body []byte) (*hlr.CallbackOutcome, error) {
	if s.async == nil {
		return nil, errors.NewInvalidArgumentError(
			"provider " + s.provider.Name() + " does not support asynchronous lookups")
	}
	if uniqueID == "" {
		return nil, errors.NewInvalidArgumentError("unique id must be a valid string")
	}

	outcome, err := s.async.ProcessCallback(ctx, s.store, uniqueID, body)
	if err != nil {
		s.scheduler.Stop(uniqueID)
		s.ReportFailure(err, uniqueID)
		return nil, err
	}
	return outcome, nil
}

// Complete forwards a reconciled batch through OnResult and, when the batch
// finished the request, runs completion. On the completing batch both
// callbacks receive the full assembled result set, not just the batch.
func (s *Service) Complete(ctx context.Context, uniqueID string, outcome *hlr.CallbackOutcome) error {
	if outcome.Done {
		return s.finish(ctx, uniqueID, outcome.Results)
	}
	if s.onResult != nil && len(outcome.Results) > 0 {
		s.onResult(outcome.Results)
	}
	return nil
}

// ReportFailure forwards a terminal request failure to the done callback.
// Used when failure strikes outside the reconciliation path, e.g. the webhook
// response could not be written.
func (s *Service) ReportFailure(err error, uniqueID string) {
	if s.onDone == nil {
		return
	}
	if cbErr := s.onDone(err, nil, uniqueID); cbErr != nil {
		s.logger.Error("done callback failed",
			zap.String("unique_id", uniqueID), zap.Error(cbErr))
	}
}

// finish runs completion for a fully reconciled request. Both callbacks get
// the full assembled result set; assembly only happens when a done callback
// waits on it. When it comes back empty (a concurrent completion already
// cleaned the numbers entry) the triggering batch stands in, so the callbacks
// never report an empty set for a request that produced results.
func (s *Service) finish(ctx context.Context, uniqueID string, batch []hlr.Result) error {
	s.scheduler.Stop(uniqueID)

	results := batch
	if s.onDone != nil {
		assembled, err := cache.GetLookedUpNumberResults(ctx, s.store, s.provider.Name(), uniqueID)
		if err != nil {
			s.ReportFailure(err, uniqueID)
			return err
		}
		if len(assembled) > 0 {
			results = assembled
		}
	}

	if s.onResult != nil && len(results) > 0 {
		s.onResult(results)
	}
	if s.onDone != nil {
		if err := s.onDone(nil, results, uniqueID); err != nil {
			// the callback's failure is reported through a second invocation
			if cbErr := s.onDone(err, results, uniqueID); cbErr != nil {
				s.logger.Error("done callback failed",
					zap.String("unique_id", uniqueID), zap.Error(cbErr))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cache.RemoveCachedKeyIds(gctx, s.store, s.provider.Name(), uniqueID)
	})
	g.Go(func() error {
		return cache.RemoveLookedUpNumbers(gctx, s.store, s.provider.Name(), uniqueID)
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("cleanup after completion failed",
			zap.String("unique_id", uniqueID), zap.Error(err))
	}

	s.logger.Info("async lookup completed",
		zap.String("unique_id", uniqueID),
		zap.Int("batch_results", len(batch)))
	return nil
}

// cleanStaleState disarms the timer and drops the looked-up-numbers entry a
// retried call with the same id may have left behind. Best effort.
func (s *Service) cleanStaleState(ctx context.Context, uniqueID string) {
	s.scheduler.Stop(uniqueID)
	if err := cache.RemoveLookedUpNumbers(ctx, s.store, s.provider.Name(), uniqueID); err != nil {
		s.logger.Warn("removing stale looked-up numbers failed",
			zap.String("unique_id", uniqueID), zap.Error(err))
	}
}

func (s *Service) callbackURLFor(uniqueID string) string {
	u, err := url.Parse(s.callbackURL)
	if err != nil {
		return s.callbackURL
	}
	q := u.Query()
	q.Set(s.callbackIDParam, uniqueID)
	u.RawQuery = q.Encode()
	return u.String()
}

// unionStrings merges two lists preserving order, first occurrence wins.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
