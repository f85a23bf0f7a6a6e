package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdown/server/internal/domain/entities"
)

// ApiResponse is the envelope every endpoint answers with.
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ApiError   `json:"error,omitempty"`
}

// ApiError carries a stable machine-readable code plus a human message.
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, ApiResponse{Success: true, Data: data})
}

func respondCreated(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, ApiResponse{Success: true, Data: data})
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ApiResponse{
		Success: false,
		Error:   &ApiError{Code: code, Message: message},
	})
}

// respondDomainError maps the error taxonomy onto HTTP statuses and stable
// error codes. Anything unrecognized is treated as a storage failure.
func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return respondError(c, http.StatusNotFound, "TASK_NOT_FOUND", err.Error())
	case errors.Is(err, entities.ErrInvalidQuery):
		return respondError(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
	case errors.Is(err, entities.ErrValidation):
		return respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		return respondError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
	}
}
