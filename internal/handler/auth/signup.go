package auth

import (
	"errors"
	"net/http"

	"civic-access/internal/api"
	"civic-access/internal/service"

	"github.com/labstack/echo/v4"
)

// SignupHandler 建立帳號，不直接發 token
// @Summary     Sign up
// @Description 以 Email 與密碼建立帳號，成功後需另行登入
// @Tags        auth
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.SignupRequest true "註冊資料"
// @Success     201  {object} api.SignupResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     422  {object} api.ErrorResponse
// @Failure     503  {object} api.ErrorResponse
// @Router      /auth/signup [post]
func SignupHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.SignupRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		user, err := svc.Register(c.Request().Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: DuplicateEmailDetail})
		case errors.Is(err, service.ErrPasswordTooLong):
			return c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: PasswordTooLong})
		case err != nil:
			return err
		}

		return c.JSON(http.StatusCreated, api.SignupResponse{Message: SignupMessage, Email: user.Email})
	}
}
