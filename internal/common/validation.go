package common

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is one field's complaint.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator collects field-level configuration complaints so a bad
// environment reports everything wrong at once instead of one variable per
// restart.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidationRule checks one value for one field.
type ValidationRule func(field string, value any) *ValidationError

// Field applies rules to a value, collecting any failures.
func (v *Validator) Field(field string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(field, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// Add records a failure no single-field rule can express.
func (v *Validator) Add(field, message string) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error folds the collected failures into one CONFIG_ERROR, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		msgs = append(msgs, e.Error())
	}
	return NewAppError(CodeConfigError, strings.Join(msgs, "; "), ErrInvalidInput)
}

// Required fails on nil and blank strings.
func Required(field string, value any) *ValidationError {
	switch v := value.(type) {
	case nil:
		return &ValidationError{Field: field, Message: "is required"}
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
	}
	return nil
}

// Positive fails on zero or negative counts, sizes and durations.
func Positive(field string, value any) *ValidationError {
	bad := false
	switch v := value.(type) {
	case int:
		bad = v <= 0
	case int64:
		bad = v <= 0
	case float64:
		bad = v <= 0
	case time.Duration:
		bad = v <= 0
	}
	if bad {
		return &ValidationError{Field: field, Message: "must be positive"}
	}
	return nil
}
