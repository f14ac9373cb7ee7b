package binder

import (
	"regexp"

	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/go-playground/validator/v10"
)

var yearRE = regexp.MustCompile(`^\d{4}$`)

// statusValidator ensures the value is a known reading status. The empty
// string is allowed so the validator can be used on optional fields; combine
// with `required` when the status must be present.
func statusValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidStatus(value)
}

// yearValidator ensures the value is a four-digit year or the empty string.
func yearValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return yearRE.MatchString(value)
}
