package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string {
	return "mock-hlr"
}

func (m *mockProvider) Lookup(ctx context.Context, number string) (hlr.Result, error) {
	args := m.Called(ctx, number)
	return args.Get(0).(hlr.Result), args.Error(1)
}

func (m *mockProvider) RegisterCallbackURL(ctx context.Context, callbackURL string) error {
	args := m.Called(ctx, callbackURL)
	return args.Error(0)
}

func (m *mockProvider) SubmitAsync(ctx context.Context, numbers []string) (*SubmitResult, error) {
	args := m.Called(ctx, numbers)
	if r := args.Get(0); r != nil {
		return r.(*SubmitResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) ProcessCallback(ctx context.Context, store cache.Store, uniqueID string, body []byte) (*hlr.CallbackOutcome, error) {
	args := m.Called(ctx, store, uniqueID, body)
	if r := args.Get(0); r != nil {
		return r.(*hlr.CallbackOutcome), args.Error(1)
	}
	return nil, args.Error(1)
}

// syncOnlyProvider has no async capability surface.
type syncOnlyProvider struct{}

func (syncOnlyProvider) Name() string { return "sync-only" }

func (syncOnlyProvider) Lookup(ctx context.Context, number string) (hlr.Result, error) {
	return hlr.Result{Number: number}, nil
}

func setupTestStore(t *testing.T) (cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := cache.NewRedisStore(&config.RedisConfig{
		URL:          mr.Addr(),
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

// seedProcessedResult stores a normalized result under the processed key for
// (provider, number) so lookups treat the number as cached.
func seedProcessedResult(t *testing.T, store cache.Store, provider string, result hlr.Result) {
	t.Helper()
	key, err := hlr.ProcessedKey(provider, result.Number)
	require.NoError(t, err)
	require.NoError(t, store.SetJSON(context.Background(), key, result, 0))
}
