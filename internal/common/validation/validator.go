package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxTaskNameLength is the longest task name the registry accepts.
const MaxTaskNameLength = 31

var validate *validator.Validate

func init() {
	validate = validator.New()
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Validate(data interface{}) []ValidationError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errors []ValidationError
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("field must satisfy %s constraint", err.Tag()),
		})
	}
	return errors
}

// ValidIdentity reports whether an identity string has the minimal email
// shape. Identities are never validated for deliverability, only for shape.
func ValidIdentity(identity string) bool {
	if identity == "" {
		return false
	}
	return validate.Var(identity, "email") == nil
}

