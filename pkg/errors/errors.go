// Package errors defines the menu error taxonomy and its HTTP mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// ValidationError reports invalid input. It is raised before any store mutation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func NewValidationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).AddMetaValue("field", e.Field)
}

// ResourceInUseError blocks a delete while other records still reference the resource.
type ResourceInUseError struct {
	Resource   string
	Dependants []string
}

func NewResourceInUseError(resource string, dependants []string) *ResourceInUseError {
	return &ResourceInUseError{Resource: resource, Dependants: dependants}
}

func (e *ResourceInUseError) Error() string {
	return fmt.Sprintf("cannot delete %s: in use by: %s", e.Resource, strings.Join(e.Dependants, ", "))
}

func (e *ResourceInUseError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusConflict, e.Error()).
		AddMetaValue("resource", e.Resource).
		AddMetaValue("dependants", e.Dependants)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsResourceInUse(err error) bool {
	_, ok := AsResourceInUse(err)
	return ok
}

func AsResourceInUse(err error) (*ResourceInUseError, bool) {
	var target *ResourceInUseError
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ToHTTPError maps a menu error anywhere in err's chain to an HTTP error.
// Other errors return nil.
func ToHTTPError(err error) *httperror.HTTPError {
	var validation *ValidationError
	if stderrors.As(err, &validation) {
		return validation.ToHTTPError()
	}
	if inUse, ok := AsResourceInUse(err); ok {
		return inUse.ToHTTPError()
	}
	return nil
}
