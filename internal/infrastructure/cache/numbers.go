package cache

import (
	"context"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

// Looked-up-numbers bookkeeping: the numbers one async request is waiting on,
// kept so the final result array can be reassembled at completion or timeout.

// StoreLookedUpNumbers persists the numbers a request is waiting on.
func StoreLookedUpNumbers(ctx context.Context, store Store, provider, uniqueID string, numbers []string) error {
	key, err := hlr.LookupNumbersKey(provider, uniqueID)
	if err != nil {
		return err
	}
	return store.SetJSON(ctx, key, numbers, PendingStateTTL)
}

// RemoveLookedUpNumbers deletes the looked-up-numbers entry for a request.
func RemoveLookedUpNumbers(ctx context.Context, store Store, provider, uniqueID string) error {
	key, err := hlr.LookupNumbersKey(provider, uniqueID)
	if err != nil {
		return err
	}
	return store.Delete(ctx, key)
}

// GetLookedUpNumberResults reassembles the results currently available for a
// request: loads its looked-up-numbers list and resolves each against the
// processed-result cache, dropping misses. An absent list yields an empty
// result set.
func GetLookedUpNumberResults(ctx context.Context, store Store, provider, uniqueID string) ([]hlr.Result, error) {
	key, err := hlr.LookupNumbersKey(provider, uniqueID)
	if err != nil {
		return nil, err
	}

	var numbers []string
	if err := store.GetJSON(ctx, key, &numbers); err != nil && !IsNotFound(err) {
		return nil, err
	}

	containers, err := GetResultsForNumbers(ctx, store, numbers, provider)
	if err != nil {
		return nil, err
	}

	results := make([]hlr.Result, 0, len(containers))
	for _, c := range containers {
		if c.Found && c.Result != nil {
			results = append(results, *c.Result)
		}
	}
	return results, nil
}
