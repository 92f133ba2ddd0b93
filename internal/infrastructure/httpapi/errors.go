package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// ErrorHandler maps a *pkgerrors.DomainError onto the HTTP status its code
// recommends, falls back to Echo's own HTTPError, and otherwise reports
// 500.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var domainErr *pkgerrors.DomainError
		if pkgerrors.As(err, &domainErr) {
			c.JSON(mapDomainErrorStatus(domainErr), ErrorResponse{
				Error:   domainErr.Code,
				Message: domainErr.Message,
				Code:    domainErr.Code,
			})
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			c.JSON(he.Code, ErrorResponse{
				Error:   http.StatusText(he.Code),
				Message: fmt.Sprintf("%v", he.Message),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func mapDomainErrorStatus(err *pkgerrors.DomainError) int {
	switch err.Code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "ALREADY_EXISTS":
		return http.StatusConflict
	case "INVALID_INPUT", "INVALID_STATE", "PORT_INCOMPATIBLE", "CYCLE_DETECTED":
		return http.StatusBadRequest
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "CANCELLED_BY_USER":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
