package hlr

import (
	"strconv"
	"strings"

	"github.com/telcoforge/hlr-lookup-service/internal/domain/errors"
)

// Cache key prefixes. Namespacing by prefix and provider keeps keys
// collision-resistant across providers and request ids.
const (
	unprocessedPrefix   = "lkp:"
	processedPrefix     = "rst:"
	lookupNumbersPrefix = "lnums:"
	timerPrefix         = "tmr:"
)

// UnprocessedKey builds the cache key holding the list of provider result ids
// not yet matched to a callback for one request.
func UnprocessedKey(provider, uniqueID string) (string, error) {
	if err := validateKeyParts(provider, uniqueID); err != nil {
		return "", err
	}
	return unprocessedPrefix + slug(provider) + ":" + slug(uniqueID), nil
}

// ProcessedKey builds the per-(provider, number) cache key under which a
// normalized lookup result is stored. The phone number is reduced to its
// integer value, so "+33892696992" and "33892696992" share a key.
func ProcessedKey(provider, phoneNumber string) (string, error) {
	if provider == "" {
		return "", errors.NewInvalidArgumentError("provider name must be a valid string")
	}
	digits, err := numericValue(phoneNumber)
	if err != nil {
		return "", err
	}
	return processedPrefix + slug(provider) + ":" + digits, nil
}

// LookupNumbersKey builds the cache key under which the numbers a request is
// waiting on are stored.
func LookupNumbersKey(provider, uniqueID string) (string, error) {
	if err := validateKeyParts(provider, uniqueID); err != nil {
		return "", err
	}
	return lookupNumbersPrefix + slug(provider) + ":" + slug(uniqueID), nil
}

// TimerKey builds the process-local timer store key for a request.
func TimerKey(uniqueID string) (string, error) {
	if uniqueID == "" {
		return "", errors.NewInvalidArgumentError("unique id must be a valid string")
	}
	return timerPrefix + slug(uniqueID), nil
}

func validateKeyParts(provider, uniqueID string) error {
	if provider == "" {
		return errors.NewInvalidArgumentError("provider name must be a valid string")
	}
	if uniqueID == "" {
		return errors.NewInvalidArgumentError("unique id must be a valid string")
	}
	return nil
}

// slug lossily normalizes human-supplied identifiers to the cache key
// alphabet: lowercase, separators collapsed to single dashes, edges trimmed.
// Distinct inputs can collide after slugging; accepted tradeoff.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// numericValue parses a phone number as a base-10 integer, tolerating one
// leading "+". Numbers with no numeric interpretation are rejected.
func numericValue(phoneNumber string) (string, error) {
	trimmed := strings.TrimSpace(phoneNumber)
	trimmed = strings.TrimPrefix(trimmed, "+")
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return "", errors.NewInvalidArgumentError("not a valid phone number").WithCause(err)
	}
	return strconv.FormatUint(n, 10), nil
}
