package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

func TestLookedUpNumbers(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("store and remove", func(t *testing.T) {
		numbers := []string{"+33892696992", "+491788735000"}
		require.NoError(t, StoreLookedUpNumbers(ctx, store, "acme", "req-1", numbers))

		key, _ := hlr.LookupNumbersKey("acme", "req-1")
		var got []string
		require.NoError(t, store.GetJSON(ctx, key, &got))
		assert.Equal(t, numbers, got)

		require.NoError(t, RemoveLookedUpNumbers(ctx, store, "acme", "req-1"))
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.Error(t, StoreLookedUpNumbers(ctx, store, "acme", "", []string{"+1"}))
		assert.Error(t, RemoveLookedUpNumbers(ctx, store, "", "req-1"))
	})
}

func TestGetLookedUpNumberResults(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("assembles available results, drops misses", func(t *testing.T) {
		require.NoError(t, StoreLookedUpNumbers(ctx, store, "acme", "req-1",
			[]string{"+33892696992", "+491788735000"}))

		key, _ := hlr.ProcessedKey("acme", "+33892696992")
		require.NoError(t, store.SetJSON(ctx, key, hlr.Result{Number: "+33892696992", CountryCode: "FR"}, 0))

		results, err := GetLookedUpNumberResults(ctx, store, "acme", "req-1")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "+33892696992", results[0].Number)
	})

	t.Run("absent numbers list yields empty set", func(t *testing.T) {
		results, err := GetLookedUpNumberResults(ctx, store, "acme", "req-none")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
