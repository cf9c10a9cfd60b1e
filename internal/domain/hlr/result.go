package hlr

// RawResult is a single lookup result as delivered by a provider, before
// normalization. ID is the provider-assigned result id used for pending-id
// reconciliation; MSISDN is the subject phone number. Payload carries the
// provider's full response row.
type RawResult struct {
	ID      string                 `json:"id"`
	MSISDN  string                 `json:"msisdn"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Result is the provider-agnostic representation of one phone number's lookup
// outcome. It is stored wholesale under the processed cache key and shared
// across requests; re-lookups overwrite it, never patch it.
type Result struct {
	Number        string                 `json:"number,omitempty"`
	MCC           string                 `json:"mcc,omitempty"`
	MNC           string                 `json:"mnc,omitempty"`
	CountryCode   string                 `json:"countryCode,omitempty"`
	CountryName   string                 `json:"countryName,omitempty"`
	CountryPrefix string                 `json:"countryPrefix,omitempty"`
	NetworkName   string                 `json:"networkName,omitempty"`
	ExtraData     map[string]interface{} `json:"extraData,omitempty"`
}

// LookupReply is the outcome of submitting an async batch lookup.
// Accepted always contains FromCache; a number both cached and accepted
// upstream is counted once.
type LookupReply struct {
	Done      bool     `json:"done"`
	UniqueID  string   `json:"uniqueId"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
	FromCache []string `json:"fromCache"`
}

// CallbackOutcome is the result of reconciling one inbound webhook batch.
// Done is true once no unprocessed result ids remain for the request.
type CallbackOutcome struct {
	Results []Result `json:"results"`
	Done    bool     `json:"done"`
}
