package cache

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

// NumberResult reports the cache outcome for one phone number.
type NumberResult struct {
	Number string      `json:"number"`
	Found  bool        `json:"found"`
	Result *hlr.Result `json:"result"`
}

// GetResultsForNumbers fetches previously stored per-number results, one
// concurrent read per number. Found is true only when the stored value
// decodes to a non-null result object; stored primitives and tombstones do
// not count. Individual misses are not errors; an empty number list yields
// an empty result list.
func GetResultsForNumbers(ctx context.Context, store Store, numbers []string, provider string) ([]NumberResult, error) {
	if store == nil {
		return nil, errors.NewInvalidArgumentError("store argument must be supplied")
	}

	results := make([]NumberResult, len(numbers))

	g, ctx := errgroup.WithContext(ctx)
	for i, number := range numbers {
		g.Go(func() error {
			key, err := hlr.ProcessedKey(provider, number)
			if err != nil {
				return err
			}

			raw, err := store.Get(ctx, key)
			if err != nil {
				if IsNotFound(err) {
					results[i] = NumberResult{Number: number}
					return nil
				}
				return err
			}

			var result *hlr.Result
			if err := json.Unmarshal([]byte(raw), &result); err != nil || result == nil {
				// stored value is not an object; treat as a miss
				results[i] = NumberResult{Number: number}
				return nil
			}

			results[i] = NumberResult{Number: number, Found: true, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
