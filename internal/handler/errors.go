package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"civic-access/internal/api"
	"civic-access/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	InternalErrorDetail    = "An internal server error occurred."
	UnavailableErrorDetail = "Database connection unavailable"
)

// ErrorHandler 將所有未處理的錯誤統一輸出為 {"detail": "..."}
// echo.HTTPError 保留狀態碼；store 斷線回 503；其餘一律 500 並記錄
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		code, detail := http.StatusInternalServerError, InternalErrorDetail
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			} else {
				detail = fmt.Sprint(he.Message)
			}
			if he.Internal != nil {
				logger.DebugContext(ctx, "http error", "status", code, "error", he.Internal)
			}
		case errors.Is(err, service.ErrStoreUnavailable):
			code, detail = http.StatusServiceUnavailable, UnavailableErrorDetail
			logger.WarnContext(ctx, "store unavailable", "path", c.Path(), "error", err)
		default:
			logger.ErrorContext(ctx, "unhandled error", "path", c.Path(), "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, api.ErrorResponse{Detail: detail})
		}
		if writeErr != nil {
			logger.ErrorContext(ctx, "write error response", "error", writeErr)
		}
	}
}
