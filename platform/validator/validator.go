// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var isoWeekPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared custom tags registered:
//
//	window_days    - 7 or 14
//	milestone_type - 1, 5 or 25
//	iso_week       - YYYY-Www
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("window_days", func(fl validator.FieldLevel) bool {
		switch fl.Field().Int() {
		case 7, 14:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("milestone_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().Int() {
		case 1, 5, 25:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("iso_week", func(fl validator.FieldLevel) bool {
		return isoWeekPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
