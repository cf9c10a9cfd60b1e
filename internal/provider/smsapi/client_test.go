package smsapi

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(&config.ProviderCredentials{
		BaseURL:  srv.URL,
		Username: "acme",
		Password: "secret",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)

		_, err = New(&config.ProviderCredentials{Password: "secret"}, nil)
		assert.Error(t, err)
	})

	t.Run("reports its provider name", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		assert.Equal(t, "smsapi", client.Name())
	})
}

func TestClientLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticates with hashed password", func(t *testing.T) {
		digest := md5.Sum([]byte("secret"))
		wantHash := hex.EncodeToString(digest[:])

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hlr.do", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "acme", q.Get("username"))
			assert.Equal(t, wantHash, q.Get("password"))
			assert.Equal(t, "+48500500500", q.Get("number"))
			assert.Equal(t, "json", q.Get("format"))

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "OK",
				"number": "+48500500500",
				"id":     "123",
				"info":   "Orange",
				"price":  0.05,
			})
		})

		result, err := client.Lookup(ctx, "+48500500500")
		require.NoError(t, err)
		assert.Equal(t, "+48500500500", result.Number)
		assert.Equal(t, "Orange", result.NetworkName)
		assert.Contains(t, result.ExtraData, "price")
	})

	t.Run("api error object", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			// errors arrive with HTTP 200
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   13,
				"message": "No correct phone numbers",
			})
		})

		_, err := client.Lookup(ctx, "+48500500500")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
		assert.Contains(t, err.Error(), "No correct phone numbers")
	})

	t.Run("http error status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.Lookup(ctx, "+48500500500")
		assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	})

	t.Run("unparseable body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>nope</html>"))
		})

		_, err := client.Lookup(ctx, "+48500500500")
		assert.Error(t, err)
	})
}
