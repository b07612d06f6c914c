package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateScore checks that a decoded JSON value is an integer between 1 and
// 5. JSON numbers arrive as float64, so anything else (strings, objects,
// missing values) is rejected, as are non-integral numbers like 3.5.
func ValidateScore(field string, value interface{}) (int, error) {
	f, ok := value.(float64)
	if !ok {
		return 0, ValidationError{Field: field, Message: fmt.Sprintf("%s must be an integer between 1 and 5", field)}
	}
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return 0, ValidationError{Field: field, Message: fmt.Sprintf("%s must be an integer between 1 and 5", field)}
	}
	return int(f), nil
}

// ValidateSleepHours checks an optional sleep duration is within a day
func ValidateSleepHours(hours float64) error {
	if hours < 0 || hours > 24 {
		return ValidationError{Field: "sleepHours", Message: "sleepHours must be between 0 and 24"}
	}
	return nil
}

// ValidateDate checks a date string is in YYYY-MM-DD form
func ValidateDate(field, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)}
	}
	return nil
}
