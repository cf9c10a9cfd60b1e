// Package hlrlookups implements the lookup provider capabilities against the
// hlr-lookups.com HTTP API: synchronous single-number lookups plus the full
// asynchronous batch surface (callback registration, batch submission and
// webhook payload processing).
package hlrlookups

import (
	"context"
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
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/cache"
	"github.com/telcoforge/hlr-lookup-service/internal/infrastructure/config"
	"github.com/telcoforge/hlr-lookup-service/internal/service/lookup"
)

const (
	// ProviderName namespaces this provider's cache keys.
	ProviderName = "hlr-lookups"

	requestTimeout = 30 * time.Second
)

// Client talks to the hlr-lookups.com API. Each instance owns its own
// http.Client; two Clients share no state.
type Client struct {
	name      string
	baseURL   string
	username  string
	password  string
	http      *http.Client
	extractor *extract.Extractor
	logger    *zap.Logger
}

var _ lookup.AsyncProviderClient = (*Client)(nil)

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
	return &Client{
		name:      ProviderName,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		http:      &http.Client{Timeout: requestTimeout},
		extractor: extract.New(logger),
		logger:    logger.With(zap.String("provider", ProviderName)),
	}, nil
}

func (c *Client) Name() string {
	return c.name
}

// apiResponse is the envelope every hlr-lookups.com action returns.
type apiResponse struct {
	Success  successFlag     `json:"success"`
	Results  json.RawMessage `json:"results"`
	ErrorMsg string          `json:"errorMessage"`
}

// successFlag tolerates the API reporting success as both bool and string.
type successFlag bool

func (s *successFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = successFlag(b)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = successFlag(str == "true")
	return nil
}

func (c *Client) do(ctx context.Context, action string, params url.Values) (*apiResponse, error) {
	q := url.Values{}
	q.Set("action", action)
	q.Set("username", c.username)
	q.Set("password", c.password)
	for key, vals := range params {
		for _, v := range vals {
			q.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.NewProviderError(c.name, "building request failed").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewProviderError(c.name, action+" request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError(c.name, "reading "+action+" response failed").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError(c.name,
			fmt.Sprintf("%s returned status %d", action, resp.StatusCode))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewProviderError(c.name, "decoding "+action+" response failed").WithCause(err)
	}
	if !bool(parsed.Success) {
		c.logger.Warn("provider reported failure",
			zap.String("action", action),
			zap.String("error_message", parsed.ErrorMsg))
		return nil, errors.NewProviderError(c.name, action+" was not successful")
	}
	return &parsed, nil
}

// Lookup performs a synchronous single-number lookup.
func (c *Client) Lookup(ctx context.Context, number string) (hlr.Result, error) {
	c.logger.Info("performing sync lookup", zap.String("number", number))

	params := url.Values{}
	params.Set("msisdn", number)
	resp, err := c.do(ctx, "submitSyncLookupRequest", params)
	if err != nil {
		return hlr.Result{}, err
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(resp.Results, &rows); err != nil || len(rows) == 0 {
		return hlr.Result{}, errors.NewProviderError(c.name, "sync lookup returned no results")
	}
	return c.extractor.Extract(rows[0])
}

// RegisterCallbackURL sets the URL the provider posts async results to.
// The setting is account-global upstream; a per-request id in the URL's query
// string is how results find their way back to the right request.
func (c *Client) RegisterCallbackURL(ctx context.Context, callbackURL string) error {
	if callbackURL == "" {
		return errors.NewInvalidArgumentError("callback url must be a valid string")
	}
	c.logger.Info("registering callback url", zap.String("callback_url", callbackURL))

	params := url.Values{}
	params.Set("url", callbackURL)
	_, err := c.do(ctx, "setAsyncCallbackUrl", params)
	return err
}

// submitResults is the result payload of submitAsyncLookupRequest.
type submitResults struct {
	AcceptedMsisdns []struct {
		ID     string `json:"id"`
		MSISDN string `json:"msisdn"`
	} `json:"acceptedMsisdns"`
	RejectedMsisdns []struct {
		MSISDN string `json:"msisdn"`
	} `json:"rejectedMsisdns"`
}

// SubmitAsync submits a batch of numbers for asynchronous lookup and reports
// the provider's acceptance decision along with the result ids that will
// identify each number's eventual callback.
func (c *Client) SubmitAsync(ctx context.Context, numbers []string) (*lookup.SubmitResult, error) {
	if len(numbers) == 0 {
		return nil, errors.NewInvalidArgumentError("numbers must be a non-empty list")
	}
	c.logger.Info("submitting async lookup", zap.Int("numbers", len(numbers)))

	params := url.Values{}
	params.Set("msisdns", strings.Join(numbers, ","))
	resp, err := c.do(ctx, "submitAsyncLookupRequest", params)
	if err != nil {
		return nil, err
	}

	var results submitResults
	if err := json.Unmarshal(resp.Results, &results); err != nil {
		return nil, errors.NewProviderError(c.name, "unable to read results from provider response").WithCause(err)
	}
	if len(results.AcceptedMsisdns) == 0 && len(results.RejectedMsisdns) == 0 {
		return nil, errors.NewProviderError(c.name, "unable to read results from provider response")
	}

	out := &lookup.SubmitResult{}
	for _, a := range results.AcceptedMsisdns {
		out.Accepted = append(out.Accepted, a.MSISDN)
		out.ResultIDs = append(out.ResultIDs, a.ID)
	}
	for _, r := range results.RejectedMsisdns {
		out.Rejected = append(out.Rejected, r.MSISDN)
	}
	return out, nil
}

// ProcessCallback parses one inbound webhook body, normalizes its result rows
// and reconciles them against the request's pending-id state.
func (c *Client) ProcessCallback(ctx context.Context, store cache.Store, uniqueID string, body []byte) (*hlr.CallbackOutcome, error) {
	rows, err := decodeCallbackBody(body)
	if err != nil {
		return nil, err
	}

	raw := make([]hlr.RawResult, 0, len(rows))
	payloads := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, hlr.RawResult{
			ID:      stringField(row, "id"),
			MSISDN:  stringField(row, "msisdn"),
			Payload: row,
		})
		payloads = append(payloads, row)
	}

	processed, err := c.extractor.ExtractAll(payloads)
	if err != nil {
		return nil, err
	}

	c.logger.Info("processing callback batch",
		zap.String("unique_id", uniqueID),
		zap.Int("results", len(raw)))

	return cache.ProcessResultKeyIds(ctx, store, c.name, uniqueID, raw, processed)
}

// decodeCallbackBody unwraps the hlr-lookups.com webhook envelope. The posted
// body carries a "json" field holding the payload either as a nested object
// or as a JSON-encoded string; a bare payload without the envelope is
// accepted too.
func decodeCallbackBody(body []byte) ([]map[string]interface{}, error) {
	var envelope struct {
		JSON json.RawMessage `json:"json"`
	}
	raw := body
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.JSON) > 0 {
		raw = envelope.JSON
		var nested string
		if err := json.Unmarshal(raw, &nested); err == nil {
			raw = []byte(nested)
		}
	}

	var payload struct {
		Results []map[string]interface{} `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewInvalidArgumentError("callback body does not carry a valid json payload").WithCause(err)
	}
	if len(payload.Results) == 0 {
		return nil, errors.NewInvalidArgumentError("no results in callback payload")
	}
	return payload.Results, nil
}

func stringField(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
