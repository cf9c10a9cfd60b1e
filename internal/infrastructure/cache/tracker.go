package cache

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

// Pending-id tracking: every async request owns one unprocessed-key entry
// holding the provider-assigned result ids still awaited. The entry is
// deleted outright once empty; presence/absence of the key IS the completion
// signal, which also makes partially-failed cleanup tolerable.

// CacheKeyIds stores the list of unprocessed result ids for a request.
// An empty id list is a successful no-op.
func CacheKeyIds(ctx context.Context, store Store, provider, uniqueID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	key, err := hlr.UnprocessedKey(provider, uniqueID)
	if err != nil {
		return err
	}
	return store.SetJSON(ctx, key, ids, PendingStateTTL)
}

// RemoveCachedKeyIds deletes the unprocessed-id entry for a request.
func RemoveCachedKeyIds(ctx context.Context, store Store, provider, uniqueID string) error {
	key, err := hlr.UnprocessedKey(provider, uniqueID)
	if err != nil {
		return err
	}
	return store.Delete(ctx, key)
}

// ProcessResultKeyIds reconciles one incoming provider result batch against
// the request's unprocessed-id list and persists the normalized results for
// later reuse.
//
// Each (raw, processed) pair is handled concurrently with a fresh read of the
// id list per item: concurrent callback batches for the same request must
// each observe the latest state. Read-modify-write cycles on the same list
// are not isolated from each other; the backend does not serialize them.
// Known, accepted race.
//
// Any cache failure rejects the whole call; the caller must treat that as
// "state unknown" and never assume completion.
func ProcessResultKeyIds(ctx context.Context, store Store, provider, uniqueID string, raw []hlr.RawResult, processed []hlr.Result) (*hlr.CallbackOutcome, error) {
	unprocessedKey, err := hlr.UnprocessedKey(provider, uniqueID)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(processed) {
		return nil, errors.NewInvalidArgumentError("raw and processed result lists must have equal length")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range raw {
		g.Go(func() error {
			processedKey, err := hlr.ProcessedKey(provider, raw[i].MSISDN)
			if err != nil {
				return err
			}

			var ids []string
			if err := store.GetJSON(gctx, unprocessedKey, &ids); err != nil && !IsNotFound(err) {
				return err
			}

			if len(ids) == 0 {
				// request already fully processed; delete is idempotent
				if err := store.Delete(gctx, unprocessedKey); err != nil {
					return err
				}
			} else if idx := indexOf(ids, raw[i].ID); idx >= 0 {
				ids = append(ids[:idx], ids[idx+1:]...)
				if len(ids) == 0 {
					// last pending id: the entry is deleted, never left empty
					if err := store.Delete(gctx, unprocessedKey); err != nil {
						return err
					}
				} else if err := store.SetJSON(gctx, unprocessedKey, ids, PendingStateTTL); err != nil {
					return err
				}
			}

			// store the normalized result regardless of id bookkeeping
			return store.SetJSON(gctx, processedKey, processed[i], DefaultResultTTL)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var remaining []string
	if err := store.GetJSON(ctx, unprocessedKey, &remaining); err != nil && !IsNotFound(err) {
		return nil, err
	}

	return &hlr.CallbackOutcome{
		Results: processed,
		Done:    len(remaining) == 0,
	}, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
