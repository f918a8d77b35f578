package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidBackend   = errors.New("invalid backend")
	ErrStoreUnavailable = errors.New("registry store unavailable")
	ErrStoreError       = errors.New("registry store returned malformed data")

	ErrInvalidSettings = errors.New("invalid settings")
	ErrPublish         = errors.New("event publish failed")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}
