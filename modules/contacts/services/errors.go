package services

import (
	"errors"
	"fmt"
)

const codeContactNotFound = "CONTACT_NOT_FOUND"

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("contact %q not found", e.ID)
}

func (e *NotFoundError) Code() string { return codeContactNotFound }

func IsNotFound(err error) bool {
	_, ok := errors.AsType[*NotFoundError](err)
	return ok
}
