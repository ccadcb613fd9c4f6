package core

import "errors"

// Error kinds surfaced by the domain. Services and handlers classify
// failures with errors.Is against these sentinels; detail is attached
// by wrapping with fmt.Errorf("%w: ...").
var (
	// ErrValidation marks malformed or out-of-range input. The entity
	// is never mutated when this is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing entity, or one owned by another user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation marks a mutation that is illegal in the
	// entity's current state (overdraw, duplicate budget period,
	// contribution to an archived goal).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConflict marks a concurrent update detected by the version
	// check at save time.
	ErrConflict = errors.New("concurrent update conflict")
)
