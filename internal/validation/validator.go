// Package validation checks user input before it reaches storage or the
// placeholder engine.
//
// SYSTEM ARCHITECTURE ROLE:
// Struct-level rules live as `validate` tags on the models and config types;
// this package owns the shared validator instance, the custom tags those
// rules use, and the conversion of failures into AppErrors.
//
// INTEGRATION POINTS:
// - internal/models: Prompt and Folder carry validate tags (foldername)
// - internal/storage: repositories call Struct before writing
// - internal/cli: ParseVars turns repeated --var flags into a value map
//
// CUSTOM TAGS:
// - foldername: the name still has characters left after SanitizeName
// - placeholder: the value is usable as a {{placeholder}} name
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/placeholder"
)

var (
	once     sync.Once
	instance *validator.Validate

	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-\s]`)
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		_ = instance.RegisterValidation("foldername", func(fl validator.FieldLevel) bool {
			return SanitizeName(fl.Field().String()) != ""
		})
		_ = instance.RegisterValidation("placeholder", func(fl validator.FieldLevel) bool {
			return placeholder.IsValidPlaceholder(fl.Field().String())
		})
	})
	return instance
}

// Validate runs struct validation and collects every failing field.
func Validate(s any) *ValidationResult {
	result := &ValidationResult{Valid: true}

	err := Validator().Struct(s)
	if err == nil {
		return result
	}

	result.Valid = false
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "struct",
			Code:    "INVALID",
			Message: err.Error(),
		})
		return result
	}

	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    strings.ToUpper(fe.Tag()),
			Message: messageFor(fe),
			Value:   fe.Value(),
		})
	}
	return result
}

// Struct validates s and returns an AppError on failure.
func Struct(s any) error {
	if appErr := Validate(s).ToAppError(); appErr != nil {
		return appErr
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "foldername":
		return fmt.Sprintf("%s must contain letters, digits, spaces, '-' or '_'", fe.Field())
	case "placeholder":
		return fmt.Sprintf("%s is not a valid placeholder name", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ToAppError converts validation result to AppError
func (result *ValidationResult) ToAppError() *errors.AppError {
	if result.Valid {
		return nil
	}

	if len(result.Errors) == 0 {
		return errors.ValidationError("Validation failed")
	}

	// Use the first error as the primary error
	appErr := errors.ValidationError(result.Errors[0].Message)

	var details []string
	for _, validationErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message))
	}
	appErr.WithDetails(strings.Join(details, "; "))
	appErr.WithContext("validation_errors", result.Errors)

	return appErr
}

// SanitizeName strips everything but letters, digits, '_', '-' and
// whitespace, then trims. The result is safe as a file or directory name.
func SanitizeName(name string) string {
	return strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, ""))
}

// ParseVars turns "name=value" pairs into a value map. Names are trimmed and
// must be valid placeholder names; values are kept verbatim and may contain
// '='. A later pair overrides an earlier one.
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.InvalidInputError(fmt.Sprintf("variable %q must be in name=value form", pair))
		}
		name = placeholder.CleanName(name)
		if !placeholder.IsValidPlaceholder(name) {
			return nil, errors.InvalidInputError(fmt.Sprintf("%q is not a valid placeholder name", name))
		}
		vars[name] = value
	}
	return vars, nil
}
