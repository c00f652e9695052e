package api

import (
	"errors"
	"net/http"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/model"
)

// writeDomainError maps sentinel domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrForbidden):
		respond.WriteForbidden(w, err.Error())
	case errors.Is(err, model.ErrNameConflict):
		respond.WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrDanglingReference),
		errors.Is(err, model.ErrDuplicateRequest),
		errors.Is(err, model.ErrAlreadyLinked),
		errors.Is(err, model.ErrNoSuchLink),
		errors.Is(err, model.ErrInvalidLinkType),
		errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
