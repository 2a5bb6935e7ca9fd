package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	applogger "QuantSuperior/pkg/logger"
)

// DataResponse writes the envelope with the given status.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes a 400 envelope.
func BadRequestResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse maps err to an envelope; unknown errors become 500.
func AppErrorResponse(c echo.Context, err error) error {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return BadRequestResponse(c, verrs)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}

// ErrorHandler renders errors escaping handlers with the same envelope.
func ErrorHandler(log *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(he.Code)
			}
			_ = DataResponse(c, he.Code, []*AppError{NewAppError(codeForStatus(he.Code), "", msg, he.Code)})
			return
		}
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				applogger.String("path", c.Path()),
				applogger.Error(err),
			)
		}
		_ = AppErrorResponse(c, err)
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusTooManyRequests:
		return CodeTooManyRequests
	case status >= 500:
		return CodeInternal
	default:
		return CodeBadRequest
	}
}
