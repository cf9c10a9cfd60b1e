// Package extract normalizes raw provider lookup payloads into the
// provider-agnostic result representation shared by all lookup flows.
package extract

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
	"github.com/telcoforge/hlr-lookup-service/internal/domain/hlr"
)

// responseFieldMappings maps provider response keys (possibly dotted paths
// into nested objects) onto normalized result fields. Providers use wildly
// different key names for the same datum; everything unmapped lands in
// ExtraData.
var responseFieldMappings = []struct {
	key   string
	apply func(r *hlr.Result, v interface{})
}{
	{"mcc", func(r *hlr.Result, v interface{}) { r.MCC = asString(v) }},
	{"mnc", func(r *hlr.Result, v interface{}) { r.MNC = asString(v) }},
	{"number", func(r *hlr.Result, v interface{}) { r.Number = asString(v) }},
	{"phone", func(r *hlr.Result, v interface{}) { r.Number = asString(v) }},
	{"international_format_number", func(r *hlr.Result, v interface{}) { r.Number = asString(v) }},
	{"msisdn", func(r *hlr.Result, v interface{}) { r.Number = asString(v) }},
	{"country_code", func(r *hlr.Result, v interface{}) { r.CountryCode = asString(v) }},
	{"msisdncountrycode", func(r *hlr.Result, v interface{}) { r.CountryCode = asString(v) }},
	{"country_name", func(r *hlr.Result, v interface{}) { r.CountryName = asString(v) }},
	{"originalcountryname", func(r *hlr.Result, v interface{}) { r.CountryName = asString(v) }},
	{"country_prefix", func(r *hlr.Result, v interface{}) { r.CountryPrefix = asString(v) }},
	{"originalcountryprefix", func(r *hlr.Result, v interface{}) { r.CountryPrefix = asString(v) }},
	{"originalnetworkname", func(r *hlr.Result, v interface{}) { r.NetworkName = asString(v) }},
	{"original_carrier.name", func(r *hlr.Result, v interface{}) { r.NetworkName = asString(v) }},
	{"info", func(r *hlr.Result, v interface{}) { r.NetworkName = asString(v) }},
}

// Extractor normalizes raw provider payloads into hlr.Result values.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract normalizes a single raw payload. Nil or empty input is an error.
func (e *Extractor) Extract(payload map[string]interface{}) (hlr.Result, error) {
	if len(payload) == 0 {
		return hlr.Result{}, errors.NewInvalidArgumentError("payload cannot be nil or empty")
	}
	return e.processObject(payload), nil
}

// ExtractAll normalizes a batch of raw payloads, skipping nil/empty entries.
// A nil or empty batch is an error.
func (e *Extractor) ExtractAll(payloads []map[string]interface{}) ([]hlr.Result, error) {
	if len(payloads) == 0 {
		return nil, errors.NewInvalidArgumentError("payloads cannot be nil or empty")
	}

	results := make([]hlr.Result, 0, len(payloads))
	for _, payload := range payloads {
		if len(payload) == 0 {
			continue
		}
		results = append(results, e.processObject(payload))
	}
	return results, nil
}

func (e *Extractor) processObject(payload map[string]interface{}) hlr.Result {
	var out hlr.Result

	used := make(map[string]bool, len(responseFieldMappings))
	for _, m := range responseFieldMappings {
		used[m.key] = true
		if v, ok := lookupPath(payload, m.key); ok && v != nil && asString(v) != "" {
			m.apply(&out, v)
		}
	}

	extra := make(map[string]interface{})
	for key, value := range payload {
		if nested, ok := value.(map[string]interface{}); ok {
			for nestedKey, nestedValue := range nested {
				dotted := key + "." + nestedKey
				if !used[dotted] {
					extra[dotted] = nestedValue
				}
			}
			continue
		}
		if !used[key] {
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		out.ExtraData = extra
	}

	e.logger.Debug("extracted lookup result",
		zap.String("number", out.Number),
		zap.Int("extra_fields", len(extra)))

	return out
}

// lookupPath resolves a possibly dotted key ("original_carrier.name") one
// level deep into the payload.
func lookupPath(payload map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := payload[key]; ok {
		return v, true
	}
	parent, child, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	nested, ok := payload[parent].(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := nested[child]
	return v, ok
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; MCC/MNC and prefixes are integral
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
