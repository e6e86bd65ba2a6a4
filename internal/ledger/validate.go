package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxScale is the number of decimal places every stored quantity keeps.
const maxScale = 2

func checkScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(maxScale)) {
		return validationError("%s %s has more than %d decimal places", field, d.String(), maxScale)
	}
	return nil
}

func checkPositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return validationError("%s must be greater than zero, got %s", field, d.String())
	}
	return checkScale(field, d)
}

func checkNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return validationError("%s must not be negative, got %s", field, d.String())
	}
	return checkScale(field, d)
}

func checkName(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", validationError("%s is required", field)
	}
	if len([]rune(v)) > max {
		return "", validationError("%s must be at most %d characters", field, max)
	}
	return v, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
