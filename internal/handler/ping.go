package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"civic-access/internal/api"
	"civic-access/internal/cache"

	"github.com/labstack/echo/v4"
)

const pingKey = "health:ping"

// Pinger 可回報連線狀態，例如 store.Users
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingHandler 健康檢查（需通過認證）
// @Summary     Health Check
// @Description 回傳 pong，並檢查資料庫與快取連線是否正常
// @Tags        health
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    BearerAuth
// @Router      /ping [get]
func PingHandler(db Pinger, cch cache.Cache, logger *slog.Logger) echo.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database ping failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "database unhealthy"})
		}
		// 未設定 Redis 時略過快取檢查
		if cch != nil {
			if err := cch.Set(ctx, pingKey, "pong", time.Second).Err(); err != nil {
				logger.WarnContext(ctx, "cache ping failed", "error", err)
				return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "cache unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "pong"})
	}
}
