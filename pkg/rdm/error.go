package rdm

import "errors"

// Error codes returned by the remote storage endpoint. Handlers map
// these onto HTTP status codes: ErrAuthRequired 401, ErrForbidden 403,
// ErrPathTraversal 400, ErrObjectNotFound 404; everything else is a
// storage failure and surfaces as 500.
var (
	ErrAuthRequired   = errors.New("authentication required")
	ErrForbidden      = errors.New("access forbidden")
	ErrPathTraversal  = errors.New("path escapes storage root")
	ErrObjectNotFound = errors.New("object not found")
)

// IsNotFound returns a boolean indicating the error is, or wraps,
// ErrObjectNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsTraversal returns a boolean indicating the error is, or wraps,
// ErrPathTraversal.
func IsTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}
