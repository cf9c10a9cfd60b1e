package values

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PhoneNumber represents a validated phone number value object
type PhoneNumber struct {
	number string // stored in E.164 format (+33892696992)
}

// E.164 format: + followed by up to 15 digits
var e164Regex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Short numbers (3-4 digits after the prefix strip) cannot be validated
// against numbering plans and are rejected for lookups.
const (
	minShortNumberLen = 2
	maxShortNumberLen = 5
)

// NewPhoneNumber creates a new PhoneNumber value object with validation.
// Input is cleaned of separators first, then must match E.164.
func NewPhoneNumber(number string) (PhoneNumber, error) {
	if number == "" {
		return PhoneNumber{}, fmt.Errorf("phone number cannot be empty")
	}

	cleaned := cleanPhoneNumber(number)

	if IsShortNumber(cleaned) {
		return PhoneNumber{}, fmt.Errorf("phone number %s is too short to be validated", number)
	}

	if !e164Regex.MatchString(cleaned) {
		return PhoneNumber{}, fmt.Errorf("invalid phone number format: %s", number)
	}

	return PhoneNumber{number: cleaned}, nil
}

// MustNewPhoneNumber creates PhoneNumber and panics on error (for tests)
func MustNewPhoneNumber(number string) PhoneNumber {
	phone, err := NewPhoneNumber(number)
	if err != nil {
		panic(err)
	}
	return phone
}

// IsValidE164 reports whether number is a syntactically valid, non-short
// E.164 phone number after separator cleanup.
func IsValidE164(number string) bool {
	_, err := NewPhoneNumber(number)
	return err == nil
}

// IsShortNumber reports whether the number is too short to validate.
func IsShortNumber(number string) bool {
	n := strings.TrimPrefix(number, "+")
	return len(n) > minShortNumberLen && len(n) < maxShortNumberLen
}

// String returns the phone number in E.164 format
func (p PhoneNumber) String() string {
	return p.number
}

// E164 returns the phone number in E.164 format (alias for String)
func (p PhoneNumber) E164() string {
	return p.number
}

// IsEmpty checks if the phone number is empty
func (p PhoneNumber) IsEmpty() bool {
	return p.number == ""
}

// Equal checks if two PhoneNumber values are equal
func (p PhoneNumber) Equal(other PhoneNumber) bool {
	return p.number == other.number
}

// MarshalJSON implements JSON marshaling
func (p PhoneNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.number)
}

// UnmarshalJSON implements JSON unmarshaling
func (p *PhoneNumber) UnmarshalJSON(data []byte) error {
	var number string
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}

	phone, err := NewPhoneNumber(number)
	if err != nil {
		return err
	}

	*p = phone
	return nil
}

// cleanPhoneNumber strips common separators only. Any other character stays
// in place so validation rejects it instead of silently passing the remains.
func cleanPhoneNumber(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, char := range number {
		switch char {
		case ' ', '-', '.', '(', ')', '/':
		default:
			b.WriteRune(char)
		}
	}
	return b.String()
}
