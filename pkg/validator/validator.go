package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

// Messages used for the common tags; others fall back to the tag name.
var messages = map[string]string{
	"required":     "This field is required.",
	"email":        "Enter a valid email address.",
	"min":          "Value is too short.",
	"max":          "Value is too long.",
	"len":          "Value has the wrong length.",
	"numeric":      "Value must be numeric.",
	"oneof":        "Value is not a valid choice.",
	"gte":          "Value is too small.",
	"availability": "Availability keys must be dates in YYYY-MM-DD format.",
}

// Register installs the custom rules and JSON field naming on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("availability", Availability); err != nil {
		return fmt.Errorf("failed to register availability rule: %w", err)
	}
	return nil
}

// New returns a standalone validator with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Availability checks every key of a map[string][]string is a calendar date.
func Availability(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map || field.Type().Key().Kind() != reflect.String {
		return false
	}
	for _, key := range field.MapKeys() {
		if _, err := time.Parse("2006-01-02", key.String()); err != nil {
			return false
		}
	}
	return true
}

// FieldErrors flattens validator errors into API field errors.
func FieldErrors(errs validator.ValidationErrors) []apperrors.FieldError {
	out := make([]apperrors.FieldError, 0, len(errs))
	for _, e := range errs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("Failed on the %q rule.", e.Tag())
		}
		out = append(out, apperrors.FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// FromBindError turns a request binding failure into an AppError.
func FromBindError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("validation failed", FieldErrors(verrs)...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.FieldInvalid(field, fmt.Sprintf("expected %s", typeErr.Type))
	}

	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return apperrors.FieldInvalid("date_time", "Datetime has wrong format, use RFC 3339.")
	}

	var sizeErr *http.MaxBytesError
	if errors.As(err, &sizeErr) {
		return apperrors.PayloadTooLarge(sizeErr.Limit)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperrors.BadRequest("malformed JSON body", err)
	}

	return apperrors.BadRequest("invalid request body", err)
}
