package customers

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

const (
	msgFirstName = "First name is required and must be at least 2 characters"
	msgLastName  = "Last name is required and must be at least 2 characters"
	msgPhone     = "Phone number is required and must be at least 10 characters"
	msgAddress   = "Address is required and must be at least 10 characters"
	msgLatitude  = "Latitude must be a number between -90 and 90"
	msgLongitude = "Longitude must be a number between -180 and 180"
)

// ValidationResult is the outcome of ValidateCustomerData.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Err returns the problems as a *errors.ValidationError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &apperrors.ValidationError{Problems: r.Errors}
}

// ValidateCustomerData checks a raw customer record, as read from an import
// file or form, keyed by column name. It never fails; every problem found is
// reported in the result.
func ValidateCustomerData(data map[string]any) ValidationResult {
	var problems []string

	if !textAtLeast(data["first_name"], 2) {
		problems = append(problems, msgFirstName)
	}
	if !textAtLeast(data["last_name"], 2) {
		problems = append(problems, msgLastName)
	}
	if !textAtLeast(data["phone"], 10) {
		problems = append(problems, msgPhone)
	}
	if !textAtLeast(data["address"], 10) {
		problems = append(problems, msgAddress)
	}

	if v, ok := number(data["latitude"]); ok && !within(v, 90) {
		problems = append(problems, msgLatitude)
	}
	if v, ok := number(data["longitude"]); ok && !within(v, 180) {
		problems = append(problems, msgLongitude)
	}

	return ValidationResult{
		IsValid: len(problems) == 0,
		Errors:  problems,
	}
}

func textAtLeast(v any, n int) bool {
	s, ok := v.(string)
	return ok && len([]rune(strings.TrimSpace(s))) >= n
}

// number reads an optional coordinate. ok is false when the value is absent;
// a present value that is not numeric yields NaN, which fails every range.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nan(), true
		}
		return f, true
	default:
		return nan(), true
	}
}

// within is false for NaN.
func within(v, limit float64) bool {
	return v >= -limit && v <= limit
}

func nan() float64 {
	return math.NaN()
}
