package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/objects"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.NewErrorResponse(http.StatusText(status), err))
}

// ServiceError maps an engine taxonomy error to its HTTP status. Denials
// keep their structured reason in the message for audit and UI display.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrEntityNotFound):
		JSONError(c, http.StatusNotFound, err)
	case errors.Is(err, entity.ErrAuthorizationDenied),
		errors.Is(err, entity.ErrUnknownRole),
		errors.Is(err, entity.ErrPolicyViolation):
		JSONError(c, http.StatusForbidden, err)
	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrConcurrentModification):
		JSONError(c, http.StatusConflict, err)
	case errors.Is(err, entity.ErrInvalidSensitivityLevel):
		JSONError(c, http.StatusBadRequest, err)
	default:
		JSONError(c, http.StatusInternalServerError, err)
	}
}
