package errs

import (
	"errors"
	"fmt"
)

// Root errors every domain error wraps. Handlers map on these with errors.Is.
var (
	// Malformed input. Nothing was changed.
	ErrValidation = errors.New("validation failed")
	// A business rule rejected the operation. Nothing was changed.
	ErrPolicyViolation = errors.New("operation not allowed")
	// The acting user may not perform the operation.
	ErrForbidden = fmt.Errorf("%w: forbidden", ErrPolicyViolation)
	ErrNotFound  = errors.New("requested resource not found")
	// Prizes were already paid out for the tournament. Not retryable, but not a fault either.
	ErrAlreadyDistributed = errors.New("prizes already distributed")
)
