package psi

import "errors"

// Every failure returned by this package wraps one of these two sentinels,
// so callers can distinguish bad input from library faults with errors.Is.
var (
	// ErrInvalidArgument indicates caller-supplied data was rejected:
	// an unknown curve identifier, malformed or out-of-range key bytes,
	// a byte string that is not a valid compressed curve point, or a
	// negative exponent. Safe to retry with corrected input.
	ErrInvalidArgument = errors.New("psi: invalid argument")

	// ErrInternal indicates the underlying arithmetic failed for a
	// reason not attributable to caller input.
	ErrInternal = errors.New("psi: internal error")
)
