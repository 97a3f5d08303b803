package travel

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNotFound covers missing records, records owned by someone else and
// missing required parameters. Callers cannot tell these apart.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const (
	MaxDestinationName = 90
	MaxCountryName     = 50
)

// ValidateDestination trims and checks destination fields. The returned
// values are the trimmed name and country.
func ValidateDestination(name, country string) (string, string, error) {
	name = strings.TrimSpace(name)
	country = strings.TrimSpace(country)

	switch {
	case name == "":
		return "", "", NewValidationError("destination_name", "this field is required")
	case !IsStorableText(name):
		return "", "", NewValidationError("destination_name", "enter valid text")
	case utf8.RuneCountInString(name) > MaxDestinationName:
		return "", "", NewValidationError("destination_name",
			fmt.Sprintf("ensure this value has at most %d characters", MaxDestinationName))
	case country == "":
		return "", "", NewValidationError("country", "this field is required")
	case !IsStorableText(country):
		return "", "", NewValidationError("country", "enter valid text")
	case utf8.RuneCountInString(country) > MaxCountryName:
		return "", "", NewValidationError("country",
			fmt.Sprintf("ensure this value has at most %d characters", MaxCountryName))
	}

	return name, country, nil
}

// IsStorableText reports whether s is valid UTF-8 without NUL bytes, which
// Postgres text columns refuse.
func IsStorableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
