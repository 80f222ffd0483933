package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/service"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/forms"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/repository"
)

// errorStatus maps application errors to HTTP status codes. The message is safe to
// show: errors that may carry backend detail get a fixed text.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, forms.ErrUnknownForm),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, port.ErrRequestNotFound),
		errors.Is(err, port.ErrFileNotFound),
		errors.Is(err, port.ErrEmployeeNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, session.ErrSubmissionInFlight):
		return http.StatusConflict, err.Error()

	case errors.Is(err, session.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()

	case errors.Is(err, session.ErrAttachmentsNotAllowed),
		errors.Is(err, session.ErrTooManyAttachments),
		errors.Is(err, session.ErrInvalidAttachment),
		errors.Is(err, session.ErrUnknownLookupTarget),
		errors.Is(err, service.ErrInvalidLookup),
		errors.Is(err, repository.ErrInvalidFileName):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrLookupFailed):
		return http.StatusBadGateway, "employee directory is unavailable"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail writes the error envelope for err and logs server-side failures
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
