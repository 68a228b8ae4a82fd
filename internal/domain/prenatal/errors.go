package prenatal

import "errors"

// Error kinds surfaced by the engine. Failures wrap one of these so callers
// can branch with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidState     = errors.New("invalid state")
)
