package httputil

import (
	"github.com/go-playground/validator/v10"
	"github.com/melosys/skjema-api/pkg/errors"
)

var validate = validator.New()

// Validate runs structural validation on a request DTO using
// go-playground/validator. Cross-field domain rules live in
// internal/skjema/validation and run at submit time; this only covers
// required/format constraints declared on the DTO tags.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		details := make(map[string]string)

		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "len":
		return "must be exactly " + e.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	default:
		return "invalid value"
	}
}
