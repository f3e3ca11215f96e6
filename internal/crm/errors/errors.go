package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrDuplicateEmail  = fmt.Errorf("duplicate email")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrForbidden       = fmt.Errorf("forbidden")
)

// NotFoundError names the resource that could not be found. It matches ErrNotFound.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound returns a NotFoundError for resource.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ResourceName extracts the resource from a NotFoundError anywhere in the chain.
func ResourceName(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Resource
	}
	return ""
}
