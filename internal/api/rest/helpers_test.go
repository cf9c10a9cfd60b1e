package rest

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
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

func setupTestStore(t *testing.T) cache.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := cache.NewRedisStore(&config.RedisConfig{
		URL:          mr.Addr(),
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock-hlr" }

func (m *mockProvider) Lookup(ctx context.Context, number string) (hlr.Result, error) {
	args := m.Called(ctx, number)
	return args.Get(0).(hlr.Result), args.Error(1)
}

func (m *mockProvider) RegisterCallbackURL(ctx context.Context, callbackURL string) error {
	return m.Called(ctx, callbackURL).Error(0)
}

func (m *mockProvider) SubmitAsync(ctx context.Context, numbers []string) (*lookup.SubmitResult, error) {
	args := m.Called(ctx, numbers)
	if res := args.Get(0); res != nil {
		return res.(*lookup.SubmitResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) ProcessCallback(ctx context.Context, store cache.Store, uniqueID string, body []byte) (*hlr.CallbackOutcome, error) {
	args := m.Called(ctx, store, uniqueID, body)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*hlr.CallbackOutcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(t *testing.T, provider lookup.ProviderClient, store cache.Store, extra func(*lookup.Options)) *lookup.Service {
	t.Helper()
	opts := lookup.Options{
		Provider:    provider,
		Store:       store,
		CallbackURL: "https://api.example.com/api/v1/callbacks/hlr",
		Logger:      zaptest.NewLogger(t),
	}
	if extra != nil {
		extra(&opts)
	}
	svc, err := lookup.NewService(opts)
	require.NoError(t, err)
	return svc
}
