// Package validation checks configuration values and model documents
// before they reach the engine.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxNameLength = 64

	// Block names: letters, digits, '_', '-', '.', '[', ']', '/'
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-\[\]/]+$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report YAML field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("blockname", func(fl validator.FieldLevel) bool {
		return ValidateBlockName(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
}

// ValidateStruct validates v against its `validate` struct tags.
func ValidateStruct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateBlockName checks a block name used in a model document.
func ValidateBlockName(name string) error {
	if name == "" {
		return errors.New("block name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("block name exceeds maximum length of %d", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("block name %q contains invalid characters", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Errorf("%s: must be at least %s", field, param))
		case "max", "lte":
			msgs = append(msgs, fmt.Errorf("%s: must not exceed %s", field, param))
		case "gt":
			msgs = append(msgs, fmt.Errorf("%s: must be greater than %s", field, param))
		case "oneof":
			msgs = append(msgs, fmt.Errorf("%s: must be one of [%s]", field, param))
		case "ltefield":
			msgs = append(msgs, fmt.Errorf("%s: must not exceed %s", field, param))
		case "blockname":
			msgs = append(msgs, fmt.Errorf("%s: invalid block name %q", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(msgs...)
}
