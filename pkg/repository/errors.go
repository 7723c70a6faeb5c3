package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnregisteredEntity matches every *UnregisteredEntityError.
	ErrUnregisteredEntity = errors.New("entity is not registered")

	// ErrInvalidRepositoryConfig matches every *InvalidRepositoryConfigError.
	ErrInvalidRepositoryConfig = errors.New("invalid repository configuration")

	// ErrInvalidPage is returned by FetchList for a negative page number.
	ErrInvalidPage = errors.New("page must be >= 0")
)

// UnregisteredEntityError is returned when no repository handles Name.
// Available lists every registered name so the caller can fix the lookup.
type UnregisteredEntityError struct {
	Name      string
	Available []string
}

func (e *UnregisteredEntityError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("entity %s is not registered. Available repositories: %s", e.Name, available)
}

func (e *UnregisteredEntityError) Is(target error) bool { return target == ErrUnregisteredEntity }

// InvalidRepositoryConfigError is returned by NewManager when a descriptor
// cannot be registered. Index is the descriptor position, or -1 when the
// problem is not tied to one descriptor.
type InvalidRepositoryConfigError struct {
	Index  int
	Name   string
	Reason string
}

func (e *InvalidRepositoryConfigError) Error() string {
	switch {
	case e.Index < 0:
		return "invalid repository config: " + e.Reason
	case e.Name == "":
		return fmt.Sprintf("invalid repository config at index %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("invalid repository config for %q (index %d): %s", e.Name, e.Index, e.Reason)
	}
}

func (e *InvalidRepositoryConfigError) Is(target error) bool {
	return target == ErrInvalidRepositoryConfig
}
