// ABOUTME: Error taxonomy for journal commands.
// ABOUTME: Unauthenticated, validation and remote failures plus command-state errors.
package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no identity is present. No data operation was attempted.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInFlight means the same command is already outstanding.
	ErrInFlight = errors.New("command already in progress")

	// ErrStaleMirror means the local mirror does not belong to the current identity.
	// The mirror has been discarded and must be rebuilt with Load.
	ErrStaleMirror = errors.New("entries not loaded for current identity")
)

// ValidationError reports a draft that was refused locally.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RemoteError wraps a failure from the entry service or the session provider.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsUnauthenticated reports whether err means no identity was present.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRemote reports whether err came from the entry service or session provider.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
