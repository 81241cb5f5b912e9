package httpadapter

import (
	"net/http"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case domain.IsKind(err, domain.ErrChapterConfirmed):
		return http.StatusConflict, "CHAPTER_CONFIRMED"
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		message = "internal error"
	}
	writeError(w, status, code, message)
}
