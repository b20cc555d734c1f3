package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned by every registration method once the registry
	// has been frozen by its first resolution query.
	ErrLocked = errors.New("registry is frozen")

	// ErrDuplicateExtension is returned when an extension id is registered
	// twice. The first instance is kept.
	ErrDuplicateExtension = errors.New("extension already registered")

	// ErrInvalidExtension is returned for nil extensions or empty ids.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrExtensionNotFound is returned when looking up an unknown extension id.
	ErrExtensionNotFound = errors.New("extension not found")

	// ErrContractViolation marks an extension that returned malformed
	// operators or globals. It points at a broken extension, not a runtime
	// condition, and is never swallowed.
	ErrContractViolation = errors.New("extension contract violation")
)

// ContractError reports which extension broke the contract and how.
type ContractError struct {
	ExtensionID string
	Err         error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("registry: extension %q: %v: %v", e.ExtensionID, ErrContractViolation, e.Err)
}

// Unwrap returns the underlying violation.
func (e *ContractError) Unwrap() error { return e.Err }

// Is matches ErrContractViolation.
func (e *ContractError) Is(target error) bool { return target == ErrContractViolation }
