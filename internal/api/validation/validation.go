// Package validation provides request decoding, validation and custom validators.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/supportai/tickethub/internal/api/response"
	"github.com/supportai/tickethub/internal/huberrors"
)

var (
	// validate and decoder are package-level singletons that are safe for concurrent
	// read-only access. All registrations MUST happen in init() only.
	validate *validator.Validate
	decoder  *form.Decoder
)

// ErrInvalidBody is returned when a request body is not valid JSON for the target type.
var ErrInvalidBody = errors.New("invalid request body")

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	decoder = form.NewDecoder()

	// Report fields by their wire name (json for bodies, form for query strings).
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return f.Name
	})

	if err := validate.RegisterValidation("no_null_bytes", validateNoNullBytes); err != nil {
		slog.Error("Failed to register no_null_bytes validator", "error", err)
	}
}

// ValidateStruct validates a struct using go-playground/validator.
// Failures are returned as *huberrors.ValidationError wrapping the validator errors.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// fieldErrors pairs a readable validation error with the validator's field errors.
type fieldErrors struct {
	*huberrors.ValidationError

	fields validator.ValidationErrors
}

func (e *fieldErrors) Unwrap() error { return e.ValidationError }

// formatValidationErrors converts validator errors to a single readable validation error.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatFieldError(fieldError))
	}

	field := ""
	if len(validationErrors) == 1 {
		field = validationErrors[0].Field()
	}

	return &fieldErrors{
		ValidationError: huberrors.NewValidationError(field, "validation failed: "+strings.Join(messages, "; ")),
		fields:          validationErrors,
	}
}

// formatFieldError formats a single field validation error.
func formatFieldError(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
	case "uuid":
		return field + " must be a valid UUID"
	case "no_null_bytes":
		return field + " must not contain NULL bytes"
	default:
		return field + " is invalid"
	}
}

// GetValidationErrorDetails extracts field-level error details from validation errors.
func GetValidationErrorDetails(err error) []response.ErrorDetail {
	var fe *fieldErrors
	if !errors.As(err, &fe) {
		return nil
	}

	details := make([]response.ErrorDetail, 0, len(fe.fields))
	for _, fieldError := range fe.fields {
		details = append(details, response.ErrorDetail{
			Location: fieldError.Field(),
			Message:  formatFieldError(fieldError),
		})
	}

	return details
}

// RespondValidationError writes a 400 with RFC 7807 Problem Details and per-field errors.
func RespondValidationError(w http.ResponseWriter, err error) {
	response.RespondProblem(w, response.ProblemDetails{
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: err.Error(),
		Code:   huberrors.CodeValidation,
		Errors: GetValidationErrorDetails(err),
	})
}

// DecodeJSON decodes a JSON request body into dst and validates it.
// Oversized bodies surface as *http.MaxBytesError so MaxBody can answer 413.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("decode body: %w", err)
		}

		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	// The body must hold exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("decode body: %w", err)
		}

		return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidBody)
	}

	return ValidateStruct(dst)
}

// DecodeQueryParams decodes URL query parameters into a struct.
func DecodeQueryParams(r *http.Request, dst any) error {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return huberrors.NewValidationError("query", "invalid query parameters: "+err.Error())
	}

	return nil
}

// ValidateAndDecodeQueryParams decodes and validates query parameters in one step.
func ValidateAndDecodeQueryParams(r *http.Request, dst any) error {
	if err := DecodeQueryParams(r, dst); err != nil {
		return err
	}

	return ValidateStruct(dst)
}

// validateNoNullBytes checks that a string field does not contain NULL bytes.
// Handles both string and *string types.
func validateNoNullBytes(fl validator.FieldLevel) bool {
	field := fl.Field()

	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}

		field = field.Elem()
	}

	if field.Kind() != reflect.String {
		return true
	}

	return !strings.Contains(field.String(), "\x00")
}
