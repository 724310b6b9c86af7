package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator, reporting fields by their json names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs the struct tags of v and converts failures into a
// ValidationError whose "fields" detail maps field name to rule.
func ValidateStruct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return NewValidationError("Invalid input")
	}

	fields := make(map[string]string, len(ve))
	missing := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}

	msg := "Validation failed"
	if len(missing) == len(ve) {
		msg = "Missing required fields: " + strings.Join(missing, ", ")
	}
	return NewValidationError("%s", msg).With("fields", fields)
}
