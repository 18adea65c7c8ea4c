package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/folio/auth"
	"github.com/gobeaver/folio/filevalidator"
	"github.com/gobeaver/folio/project"
)

// APIError is the error body returned to clients.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 error for a specific field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: field,
	}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 error. The cause is logged, not returned.
func NewInternalError(message string) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
}

var uploadErrorCodes = map[filevalidator.ValidationErrorType]struct {
	status int
	code   string
}{
	filevalidator.ErrorTypeExtension: {http.StatusBadRequest, "INVALID_EXTENSION"},
	filevalidator.ErrorTypeMIME:      {http.StatusBadRequest, "INVALID_MIME_TYPE"},
	filevalidator.ErrorTypeContent:   {http.StatusBadRequest, "INVALID_CONTENT"},
	filevalidator.ErrorTypeSize:      {http.StatusRequestEntityTooLarge, "SIZE_EXCEEDED"},
	filevalidator.ErrorTypeCount:     {http.StatusBadRequest, "COUNT_EXCEEDED"},
	filevalidator.ErrorTypeFileName:  {http.StatusBadRequest, "INVALID_FILENAME"},
}

var httpErrorCodes = map[int]string{
	http.StatusBadRequest:            "BAD_REQUEST",
	http.StatusUnauthorized:          "UNAUTHORIZED",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusRequestEntityTooLarge: "SIZE_EXCEEDED",
	http.StatusUnsupportedMediaType:  "UNSUPPORTED_MEDIA_TYPE",
	http.StatusTooManyRequests:       "RATE_LIMITED",
}

// toAPIError maps domain errors onto client-facing errors.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *filevalidator.ValidationError
	if errors.As(err, &verr) {
		if m, ok := uploadErrorCodes[verr.Type]; ok {
			return &APIError{Status: m.status, Code: m.code, Message: verr.Message}
		}
		return &APIError{Status: http.StatusInternalServerError, Code: "UPLOAD_FAILED", Message: "failed to store upload"}
	}

	switch {
	case errors.Is(err, project.ErrInvalidID):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_ID", Message: err.Error()}
	case errors.Is(err, project.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, project.ErrNameRequired):
		return NewValidationError("name", err.Error())
	case errors.Is(err, project.ErrDescriptionRequired):
		return NewValidationError("description", err.Error())
	case errors.Is(err, project.ErrInvalidStatus):
		return NewValidationError("status", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &APIError{Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: err.Error()}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, ok := httpErrorCodes[he.Code]
		if !ok {
			code = "HTTP_ERROR"
		}
		return &APIError{Status: he.Code, Code: code, Message: fmt.Sprintf("%v", he.Message)}
	}

	return nil
}

type errorResponse struct {
	Success bool `json:"success"`
	*APIError
}

// ErrorHandler renders every handler error as an APIError. Unmapped errors
// become a generic 500 and are logged.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := toAPIError(err)
		if apiErr == nil {
			apiErr = NewInternalError("An unexpected error occurred")
		}
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(apiErr.Status)
		} else {
			err = c.JSON(apiErr.Status, errorResponse{APIError: apiErr})
		}
		if err != nil {
			logger.Warn("failed to write error response", "error", err)
		}
	}
}
