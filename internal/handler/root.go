package handler

import (
	"context"
	"net/http"

	"civic-access/internal/api"

	"github.com/labstack/echo/v4"
)

// RootHandler 歡迎訊息
// @Summary     Welcome
// @Tags        health
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Router      / [get]
func RootHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Welcome to the API"})
	}
}

// UserCounter 由 *service.UserCounter 實作
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// UserCountHandler 回傳已註冊使用者數量
// @Summary     Registered user count
// @Description 讀取快取中的使用者數量，快取失效時回查資料庫
// @Tags        stats
// @Produce     json
// @Success     200 {object} api.CountResponse
// @Failure     500 {object} api.ErrorResponse
// @Failure     503 {object} api.ErrorResponse
// @Router      /stats/users [get]
func UserCountHandler(counter UserCounter) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := counter.Count(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, api.CountResponse{Count: n})
	}
}
