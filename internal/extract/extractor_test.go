package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestExtractor_Extract(t *testing.T) {
	e := New(zaptest.NewLogger(t))

	t.Run("hlr-lookups.com style payload", func(t *testing.T) {
		payload := map[string]interface{}{
			"msisdn":                "+491788735000",
			"mcc":                   "262",
			"mnc":                   "03",
			"msisdncountrycode":     "DE",
			"originalcountryname":   "Germany",
			"originalcountryprefix": "+49",
			"originalnetworkname":   "E-Plus",
			"statuscode":            "HLRSTATUS_DELIVERED",
			"isvalid":               "Yes",
		}

		result, err := e.Extract(payload)
		require.NoError(t, err)

		assert.Equal(t, "+491788735000", result.Number)
		assert.Equal(t, "262", result.MCC)
		assert.Equal(t, "03", result.MNC)
		assert.Equal(t, "DE", result.CountryCode)
		assert.Equal(t, "Germany", result.CountryName)
		assert.Equal(t, "+49", result.CountryPrefix)
		assert.Equal(t, "E-Plus", result.NetworkName)
		assert.Equal(t, "HLRSTATUS_DELIVERED", result.ExtraData["statuscode"])
		assert.Equal(t, "Yes", result.ExtraData["isvalid"])
	})

	t.Run("nested carrier object", func(t *testing.T) {
		payload := map[string]interface{}{
			"international_format_number": "+33892696992",
			"country_code":                "FR",
			"original_carrier": map[string]interface{}{
				"name":         "Orange",
				"network_code": "20801",
			},
		}

		result, err := e.Extract(payload)
		require.NoError(t, err)

		assert.Equal(t, "+33892696992", result.Number)
		assert.Equal(t, "FR", result.CountryCode)
		assert.Equal(t, "Orange", result.NetworkName)
		// mapped nested key stays out of extra data, unmapped sibling goes in
		assert.Equal(t, "20801", result.ExtraData["original_carrier.network_code"])
		assert.NotContains(t, result.ExtraData, "original_carrier.name")
	})

	t.Run("numeric values stringified", func(t *testing.T) {
		payload := map[string]interface{}{
			"msisdn": "+491788735000",
			"mcc":    float64(262),
			"mnc":    float64(3),
		}

		result, err := e.Extract(payload)
		require.NoError(t, err)
		assert.Equal(t, "262", result.MCC)
		assert.Equal(t, "3", result.MNC)
	})

	t.Run("no extra data leaves ExtraData nil", func(t *testing.T) {
		result, err := e.Extract(map[string]interface{}{"msisdn": "+491788735000"})
		require.NoError(t, err)
		assert.Nil(t, result.ExtraData)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, err := e.Extract(nil)
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := e.Extract(map[string]interface{}{})
		assert.Error(t, err)
	})
}

func TestExtractor_ExtractAll(t *testing.T) {
	e := New(zaptest.NewLogger(t))

	t.Run("batch with empty entries skipped", func(t *testing.T) {
		payloads := []map[string]interface{}{
			{"msisdn": "+491788735000", "mcc": "262"},
			nil,
			{},
			{"msisdn": "+33892696992", "mcc": "208"},
		}

		results, err := e.ExtractAll(payloads)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "+491788735000", results[0].Number)
		assert.Equal(t, "+33892696992", results[1].Number)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := e.ExtractAll(nil)
		assert.Error(t, err)
	})
}
