package models

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every model validation failure.
var ErrInvalid = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
