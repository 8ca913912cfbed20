package auth

import (
	"errors"
	"net/http"

	"civic-access/internal/api"
	"civic-access/internal/service"

	"github.com/labstack/echo/v4"
)

// LoginHandler 使用 Email/Password 驗證並回傳 JWT
// @Summary     登入使用者
// @Description 驗證 Email 與密碼，回傳 bearer 存取令牌與使用者資料
// @Tags        auth
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.LoginRequest true "登入資料"
// @Success     200  {object} api.LoginResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     422  {object} api.ErrorResponse
// @Failure     503  {object} api.ErrorResponse
// @Router      /auth/login [post]
func LoginHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		res, err := svc.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: BadCredentialsDetail})
			}
			return err
		}

		return c.JSON(http.StatusOK, api.LoginResponse{
			AccessToken: res.AccessToken,
			TokenType:   res.TokenType,
			User:        api.NewUserResponse(res.User),
		})
	}
}
