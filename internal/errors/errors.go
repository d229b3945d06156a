package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console client
var (
	// Storage errors
	ErrNotFound     = errors.New("not found")
	ErrCorrupted    = errors.New("corrupted value")
	ErrKeyRequired  = errors.New("key is required")
	ErrInvalidInput = errors.New("invalid input")

	// Session errors
	ErrNotLoggedIn = errors.New("not logged in")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
