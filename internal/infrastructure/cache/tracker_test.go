package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

func seedUnprocessed(t *testing.T, store Store, provider, uniqueID string, ids []string) string {
	t.Helper()
	key, err := hlr.UnprocessedKey(provider, uniqueID)
	require.NoError(t, err)
	require.NoError(t, store.SetJSON(context.Background(), key, ids, 0))
	return key
}

func TestCacheKeyIds(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("stores ids verbatim", func(t *testing.T) {
		err := CacheKeyIds(ctx, store, "acme", "req-1", []string{"1", "2", "3"})
		require.NoError(t, err)

		key, _ := hlr.UnprocessedKey("acme", "req-1")
		var ids []string
		require.NoError(t, store.GetJSON(ctx, key, &ids))
		assert.Equal(t, []string{"1", "2", "3"}, ids)
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		require.NoError(t, CacheKeyIds(ctx, store, "acme", "req-2", nil))

		key, _ := hlr.UnprocessedKey("acme", "req-2")
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invalid provider", func(t *testing.T) {
		assert.Error(t, CacheKeyIds(ctx, store, "", "req-1", []string{"1"}))
	})
}

func TestRemoveCachedKeyIds(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	key := seedUnprocessed(t, store, "acme", "req-1", []string{"1"})

	require.NoError(t, RemoveCachedKeyIds(ctx, store, "acme", "req-1"))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// removing again is fine
	assert.NoError(t, RemoveCachedKeyIds(ctx, store, "acme", "req-1"))
}

func TestProcessResultKeyIds(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("removes matched id, not done while ids remain", func(t *testing.T) {
		key := seedUnprocessed(t, store, "P", "U1", []string{"1", "2"})

		outcome, err := ProcessResultKeyIds(ctx, store, "P", "U1",
			[]hlr.RawResult{{ID: "1", MSISDN: "+1234567890"}},
			[]hlr.Result{{Number: "+1234567890"}})
		require.NoError(t, err)
		assert.False(t, outcome.Done)
		assert.Equal(t, []hlr.Result{{Number: "+1234567890"}}, outcome.Results)

		var ids []string
		require.NoError(t, store.GetJSON(ctx, key, &ids))
		assert.Equal(t, []string{"2"}, ids)

		// processed result stored for reuse
		pkey, _ := hlr.ProcessedKey("P", "+1234567890")
		var stored hlr.Result
		require.NoError(t, store.GetJSON(ctx, pkey, &stored))
		assert.Equal(t, "+1234567890", stored.Number)
	})

	t.Run("last id removed deletes entry and reports done", func(t *testing.T) {
		key := seedUnprocessed(t, store, "P", "U2", []string{"1"})

		outcome, err := ProcessResultKeyIds(ctx, store, "P", "U2",
			[]hlr.RawResult{{ID: "1", MSISDN: "+1234567890"}},
			[]hlr.Result{{Number: "+1234567890"}})
		require.NoError(t, err)
		assert.True(t, outcome.Done)

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "empty unprocessed entry must be deleted, not kept")
	})

	t.Run("unknown id still stores processed result", func(t *testing.T) {
		key := seedUnprocessed(t, store, "P", "U3", []string{"7"})

		outcome, err := ProcessResultKeyIds(ctx, store, "P", "U3",
			[]hlr.RawResult{{ID: "not-tracked", MSISDN: "+491788735000"}},
			[]hlr.Result{{Number: "+491788735000"}})
		require.NoError(t, err)
		assert.False(t, outcome.Done)

		var ids []string
		require.NoError(t, store.GetJSON(ctx, key, &ids))
		assert.Equal(t, []string{"7"}, ids)

		pkey, _ := hlr.ProcessedKey("P", "+491788735000")
		exists, err := store.Exists(ctx, pkey)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("absent entry means already done, monotonically", func(t *testing.T) {
		outcome, err := ProcessResultKeyIds(ctx, store, "P", "U4",
			[]hlr.RawResult{{ID: "1", MSISDN: "+1234567890"}},
			[]hlr.Result{{Number: "+1234567890"}})
		require.NoError(t, err)
		assert.True(t, outcome.Done)

		// a repeat call observes the same terminal state
		outcome, err = ProcessResultKeyIds(ctx, store, "P", "U4",
			[]hlr.RawResult{{ID: "1", MSISDN: "+1234567890"}},
			[]hlr.Result{{Number: "+1234567890"}})
		require.NoError(t, err)
		assert.True(t, outcome.Done)
	})

	t.Run("multi item batch drains the list", func(t *testing.T) {
		seedUnprocessed(t, store, "P", "U5", []string{"a", "b"})

		outcome, err := ProcessResultKeyIds(ctx, store, "P", "U5",
			[]hlr.RawResult{
				{ID: "a", MSISDN: "+33892696992"},
				{ID: "b", MSISDN: "+491788735000"},
			},
			[]hlr.Result{
				{Number: "+33892696992"},
				{Number: "+491788735000"},
			})
		require.NoError(t, err)
		assert.True(t, outcome.Done)
		assert.Len(t, outcome.Results, 2)
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		_, err := ProcessResultKeyIds(ctx, store, "P", "U6",
			[]hlr.RawResult{{ID: "1", MSISDN: "+1234567890"}}, nil)
		assert.Error(t, err)
	})

	t.Run("invalid msisdn rejects the call", func(t *testing.T) {
		seedUnprocessed(t, store, "P", "U7", []string{"1"})
		_, err := ProcessResultKeyIds(ctx, store, "P", "U7",
			[]hlr.RawResult{{ID: "1", MSISDN: "garbage"}},
			[]hlr.Result{{Number: "garbage"}})
		assert.Error(t, err)
	})
}
