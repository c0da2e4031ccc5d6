package semtag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersion matches every *InvalidVersionError via errors.Is
	ErrInvalidVersion = errors.New("invalid version")

	// ErrConfiguration matches every *ConfigurationError via errors.Is
	ErrConfiguration = errors.New("invalid configuration")

	// ErrRepositoryAccess matches every *RepositoryAccessError via errors.Is
	ErrRepositoryAccess = errors.New("repository access failed")
)

// InvalidVersionError is returned when a string is not a SemVer 2.0.0 version.
// A version that fails to parse aborts the whole computation.
type InvalidVersionError struct {
	// Value is the text that could not be parsed
	Value string

	// Err is the underlying parser error, if any
	Err error
}

func (e *InvalidVersionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid version %q", e.Value)
	}
	return fmt.Sprintf("invalid version %q: %v", e.Value, e.Err)
}

func (e *InvalidVersionError) Unwrap() error { return e.Err }

func (e *InvalidVersionError) Is(target error) bool { return target == ErrInvalidVersion }

// ConfigurationError is returned when a configuration value cannot be used.
// It is raised when an Engine is built, never in the middle of a computation.
type ConfigurationError struct {
	// Field is the configuration key that failed, e.g. "defaultIncrement"
	Field string

	// Err describes the failure
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// RepositoryAccessError is returned when the history of the repository can
// not be read or written. It is never retried.
type RepositoryAccessError struct {
	// Op names the repository operation, e.g. "listing tags"
	Op string

	// Err is the underlying git error
	Err error
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error { return e.Err }

func (e *RepositoryAccessError) Is(target error) bool { return target == ErrRepositoryAccess }

func repositoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	var rae *RepositoryAccessError
	if errors.As(err, &rae) {
		return err
	}
	return &RepositoryAccessError{Op: op, Err: err}
}
