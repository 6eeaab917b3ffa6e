package errors

import (
	"errors"
	"fmt"
)

// Common error kinds for the token generator
var (
	// Credential file errors
	ErrInvalidDescriptor = errors.New("invalid client secret descriptor")

	// Redirect capture errors
	ErrMalformedInput = errors.New("malformed redirect input")

	// Exchange errors
	ErrAuthorizationDenied = errors.New("authorization denied by provider")
	ErrNetworkFailure      = errors.New("network failure during token exchange")

	// Attempt lifecycle errors
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptExpired    = errors.New("attempt expired")
	ErrInvalidTransition = errors.New("invalid attempt state transition")
	ErrTokenNotReady     = errors.New("token not ready")
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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
