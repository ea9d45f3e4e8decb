package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the struct tag rules on v and reports the first failure as a ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() == "" {
			return menuerrors.NewValidationErrorf(fe.Field(), "failed rule '%s', got '%v'", fe.Tag(), fe.Value())
		}
		return menuerrors.NewValidationErrorf(fe.Field(), "failed rule '%s' expected '%s', got '%v'", fe.Tag(), fe.Param(), fe.Value())
	}

	return err
}

// ValidateVar checks a single value against a validator tag.
func ValidateVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return menuerrors.NewValidationErrorf(field, "failed rule '%s'", tag)
	}
	return nil
}

func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return menuerrors.NewValidationError(field, "must not be empty")
	}
	return nil
}

func ValidatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return menuerrors.NewValidationErrorf(field, "must be >= 0, got %s", price.String())
	}
	return nil
}

func validateOptionalPrice(field string, price *decimal.Decimal) error {
	if price == nil {
		return nil
	}
	return ValidatePrice(field, *price)
}
