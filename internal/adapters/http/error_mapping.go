package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotPDF):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrInvalidPDF):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentFetch):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
