// Package httperr carries request classification across layer
// boundaries. A store that rejects a malformed predicate returns a
// BadRequestError and the HTTP layer maps it to a 400, without either
// side importing the other.
package httperr

import (
	"errors"
	"fmt"
)

type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

// BadRequestf is NewBadRequest with fmt.Sprintf formatting.
func BadRequestf(format string, args ...any) error {
	return &BadRequestError{msg: fmt.Sprintf(format, args...)}
}

// IsBadRequest reports whether err is (or wraps) a BadRequestError.
func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}
