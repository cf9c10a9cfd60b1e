package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
)

// cleanupTimeout bounds the cache work done when a request times out; the
// cleanup runs detached from any caller context.
const cleanupTimeout = 30 * time.Second

// TimeoutScheduler arms one cleanup timer per in-flight async request.
// Timer handles live in a process-local TimerStore, so callbacks for a
// request must reach the process that armed its timer; a Stop elsewhere is a
// no-op and the timer fires as scheduled.
type TimeoutScheduler struct {
	store  cache.Store
	timers *cache.TimerStore
	logger *zap.Logger
}

func NewTimeoutScheduler(store cache.Store, timers *cache.TimerStore, logger *zap.Logger) *TimeoutScheduler {
	if timers == nil {
		timers = cache.NewTimerStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeoutScheduler{store: store, timers: timers, logger: logger}
}

// Start arms the cleanup timer for a request. When the delay elapses without
// a Stop, whatever results have arrived are reported through done and the
// request's bookkeeping is cleared.
func (s *TimeoutScheduler) Start(provider, uniqueID string, delay time.Duration, done DoneFunc) error {
	if s.store == nil {
		return errors.NewInvalidArgumentError("store must be supplied")
	}
	key, err := hlr.TimerKey(uniqueID)
	if err != nil {
		return err
	}

	timer := time.AfterFunc(delay, func() {
		s.fire(provider, uniqueID, done)
	})
	s.timers.Put(key, timer, delay)
	return nil
}

// Stop disarms the timer for a request. Stopping an unknown or already-fired
// request succeeds as a no-op; an empty uniqueID is a validation error.
func (s *TimeoutScheduler) Stop(uniqueID string) error {
	key, err := hlr.TimerKey(uniqueID)
	if err != nil {
		return err
	}
	if timer, ok := s.timers.Get(key); ok {
		timer.Stop()
	}
	s.timers.Delete(key)
	return nil
}

// fire runs timeout handling: report the partial result set through done,
// then clear the request's bookkeeping. A failure inside the done callback is
// reported through a second invocation carrying that failure.
func (s *TimeoutScheduler) fire(provider, uniqueID string, done DoneFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	s.logger.Info("async lookup timed out",
		zap.String("provider", provider),
		zap.String("unique_id", uniqueID))
	lookupTimeouts.WithLabelValues(provider).Inc()

	results, err := cache.GetLookedUpNumberResults(ctx, s.store, provider, uniqueID)
	if done != nil {
		if err != nil {
			s.invokeDone(done, err, nil, uniqueID)
		} else if cbErr := done(nil, results, uniqueID); cbErr != nil {
			s.invokeDone(done, cbErr, results, uniqueID)
		}
	} else if err != nil {
		s.logger.Error("assembling results at timeout failed",
			zap.String("unique_id", uniqueID), zap.Error(err))
	}

	s.cleanup(ctx, provider, uniqueID)
}

func (s *TimeoutScheduler) invokeDone(done DoneFunc, err error, results []hlr.Result, uniqueID string) {
	if cbErr := done(err, results, uniqueID); cbErr != nil {
		s.logger.Error("done callback failed",
			zap.String("unique_id", uniqueID), zap.Error(cbErr))
	}
}

// cleanup deletes the request's three bookkeeping entries concurrently.
// Failures are logged, not propagated; timeout cleanup has no caller to
// report to and stale entries expire on their own TTLs.
func (s *TimeoutScheduler) cleanup(ctx context.Context, provider, uniqueID string) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cache.RemoveCachedKeyIds(gctx, s.store, provider, uniqueID)
	})
	g.Go(func() error {
		return cache.RemoveLookedUpNumbers(gctx, s.store, provider, uniqueID)
	})
	g.Go(func() error {
		key, err := hlr.TimerKey(uniqueID)
		if err != nil {
			return err
		}
		s.timers.Delete(key)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("timeout cleanup incomplete",
			zap.String("unique_id", uniqueID), zap.Error(err))
	}
}
