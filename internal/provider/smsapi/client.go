// Package smsapi implements the synchronous lookup capability against the
// smsapi.com HLR API. The API has no asynchronous batch surface, so the
// client deliberately implements only the base provider capability.
package smsapi

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
	"github.com/telcoforge/hlr-lookup-service/internal/extract"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

const (
	// ProviderName namespaces this provider's cache keys.
	ProviderName = "smsapi"

	requestTimeout = 30 * time.Second
)

// Client talks to the smsapi.com HLR endpoint. Authentication uses the
// account username plus an MD5 digest of the password, as the API requires.
type Client struct {
	name         string
	baseURL      string
	username     string
	passwordHash string
	http         *http.Client
	extractor    *extract.Extractor
	logger       *zap.Logger
}

var _ lookup.ProviderClient = (*Client)(nil)

func New(cfg *config.ProviderCredentials, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.NewInvalidArgumentError("provider credentials must be supplied")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.NewInvalidArgumentError("provider username and password must be supplied")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	digest := md5.Sum([]byte(cfg.Password))

	return &Client{
		name:         ProviderName,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		username:     cfg.Username,
		passwordHash: hex.EncodeToString(digest[:]),
		http:         &http.Client{Timeout: requestTimeout},
		extractor:    extract.New(logger),
		logger:       logger.With(zap.String("provider", ProviderName)),
	}, nil
}

func (c *Client) Name() string {
	return c.name
}

// Lookup performs a synchronous single-number lookup via /hlr.do.
func (c *Client) Lookup(ctx context.Context, number string) (hlr.Result, error) {
	c.logger.Info("performing sync lookup", zap.String("number", number))

	q := url.Values{}
	q.Set("username", c.username)
	q.Set("password", c.passwordHash)
	q.Set("number", number)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/hlr.do?"+q.Encode(), nil)
	if err != nil {
		return hlr.Result{}, errors.NewProviderError(c.name, "building request failed").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return hlr.Result{}, errors.NewProviderError(c.name, "hlr request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return hlr.Result{}, errors.NewProviderError(c.name, "reading hlr response failed").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return hlr.Result{}, errors.NewProviderError(c.name,
			fmt.Sprintf("hlr request returned status %d", resp.StatusCode))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return hlr.Result{}, errors.NewProviderError(c.name, "decoding hlr response failed").WithCause(err)
	}

	// errors come back as {error: <code>, message: <text>} with status 200
	if code, failed := payload["error"]; failed {
		msg := fmt.Sprintf("error %v", code)
		if text, ok := payload["message"].(string); ok && text != "" {
			msg = fmt.Sprintf("error %v: %s", code, text)
		}
		c.logger.Warn("provider reported failure", zap.String("detail", msg))
		return hlr.Result{}, errors.NewProviderError(c.name, msg)
	}

	return c.extractor.Extract(payload)
}
