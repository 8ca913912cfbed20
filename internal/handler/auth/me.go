package auth

import (
	"errors"
	"net/http"

	"civic-access/internal/api"
	"civic-access/internal/middleware"
	"civic-access/internal/service"

	"github.com/labstack/echo/v4"
)

// MeHandler 依 token 取得目前使用者
// @Summary     Current user
// @Description token 可放在 query 參數或 Authorization: Bearer 標頭
// @Tags        auth
// @Produce     json
// @Param       token query    string false "access token"
// @Success     200   {object} api.UserResponse
// @Failure     401   {object} api.ErrorResponse
// @Failure     503   {object} api.ErrorResponse
// @Security    BearerAuth
// @Router      /auth/me [get]
func MeHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := middleware.TokenFromRequest(c)
		if tok == "" {
			return middleware.Unauthorized(c)
		}

		user, err := svc.CurrentUser(c.Request().Context(), tok)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return middleware.Unauthorized(c)
			}
			return err
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
}
