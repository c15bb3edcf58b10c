package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts go-playground/validator to echo's Validator interface
type CustomValidator struct {
	validate *validator.Validate
}

// New builds a validator with the default tag rules
func New() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate checks the struct tags on i and returns the first violation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
