package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger 以 slog 記錄每個請求；5xx 用 error 等級，4xx 用 warn
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			status := v.Status
			// 尚未寫出回應的錯誤會由 HTTPErrorHandler 轉成 500
			if v.Error != nil && status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
