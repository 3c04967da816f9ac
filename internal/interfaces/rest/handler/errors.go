package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/validate"
	"github.com/pot-code/course-reader/internal/progress"
)

// RESTStandardError response error
type RESTStandardError struct {
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewRESTStandardError(code int, detail string) *RESTStandardError {
	return &RESTStandardError{
		Code:   code,
		Title:  http.StatusText(code),
		Detail: detail,
	}
}

func (re RESTStandardError) Error() string {
	return re.Detail
}

func (re RESTStandardError) SetTraceID(traceID string) RESTStandardError {
	re.TraceID = traceID
	return re
}

// RESTValidationError standard validation error
type RESTValidationError struct {
	RESTStandardError
	InvalidParams []*validate.FieldError `json:"invalid_params"`
}

func NewRESTValidationError(code int, detail string, internal []*validate.FieldError) *RESTValidationError {
	return &RESTValidationError{
		RESTStandardError: RESTStandardError{
			Code:   code,
			Title:  http.StatusText(code),
			Detail: detail,
		},
		InvalidParams: internal,
	}
}

func (rve RESTValidationError) Error() string {
	return rve.Detail
}

func (rve RESTValidationError) SetTraceID(traceID string) RESTValidationError {
	rve.RESTStandardError.TraceID = traceID
	return rve
}

func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func respondInvalid(c echo.Context, fields []*validate.FieldError) error {
	return c.JSON(http.StatusBadRequest,
		NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", fields).SetTraceID(traceID(c)))
}

func respondError(c echo.Context, code int, detail string) error {
	return c.JSON(code, NewRESTStandardError(code, detail).SetTraceID(traceID(c)))
}

// respondDomainError reply to the errors the use cases define, everything else
// is passed on to the error handling middleware
func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, progress.ErrAccountNotInitialized):
		return respondError(c, http.StatusConflict, "account is not initialized, create it with POST /api/v1/user/account")
	case errors.Is(err, progress.ErrConflict):
		return respondError(c, http.StatusConflict, "progress is being updated concurrently, try again")
	}
	return err
}
