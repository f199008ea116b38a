package exchange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errMissingField = errors.New("missing field")
	errInvalidField = errors.New("invalid field")
)

// ParseDecimal parses a required decimal string field
func ParseDecimal(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("%w %q", errMissingField, field)
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w %q: %q", errInvalidField, field, value)
	}

	return parsed, nil
}

// ParseFloat parses a required float string field
func ParseFloat(field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w %q", errMissingField, field)
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %q", errInvalidField, field, value)
	}

	return parsed, nil
}

// ParseOptionalFloat parses an optional float string field.
// Empty values yield nil
func ParseOptionalFloat(field, value string) (*float64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil //nolint:nilnil // valid case
	}

	parsed, err := ParseFloat(field, value)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}
