package model

import "errors"

var (
	// ErrNotFound signals that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDanglingReference signals a create referencing a nonexistent neighbor.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrNameConflict signals a scope-scoped name uniqueness violation.
	ErrNameConflict = errors.New("name conflict")
	// ErrForbidden signals a failed ownership check.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateRequest signals an identical pending link request.
	ErrDuplicateRequest = errors.New("duplicate link request")
	// ErrAlreadyLinked signals that the edge already exists on accept.
	ErrAlreadyLinked = errors.New("containers already linked")
	// ErrNoSuchLink signals an unlink of an edge that does not exist.
	ErrNoSuchLink = errors.New("no such link")
	// ErrInvalidLinkType signals a link type outside {getLink, putLink}.
	ErrInvalidLinkType = errors.New("invalid link type")
	// ErrValidation signals malformed input.
	ErrValidation = errors.New("validation error")
)
