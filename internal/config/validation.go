package config

import (
	"fmt"
	"strings"

	"vegitate/internal/combo"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any error concerns field.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// validate checks the fields the schema cannot: key names and the combo
// grammar are owned by the combo package.
func (f File) validate() ValidationErrors {
	var errs ValidationErrors

	if _, ok := combo.LookupKey(normalizeKey(f.PanicKey)); !ok {
		errs = append(errs, ValidationError{
			Field:   "panic_key",
			Message: fmt.Sprintf("unknown key %q", f.PanicKey),
		})
	}
	if f.PanicTaps < 0 {
		errs = append(errs, ValidationError{
			Field:   "panic_taps",
			Message: "must be >= 0 (0 disables the panic sequence)",
		})
	}
	if f.PanicWindow <= 0 {
		errs = append(errs, ValidationError{
			Field:   "panic_window",
			Message: "must be > 0 seconds",
		})
	}
	return errs
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
