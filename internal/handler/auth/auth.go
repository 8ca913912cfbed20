// Package auth 提供註冊、登入與目前使用者查詢的 HTTP handler
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"civic-access/internal/api"
	"civic-access/internal/model"
	"civic-access/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	SignupMessage        = "Account created successfully. Please log in."
	DuplicateEmailDetail = "Email already registered"
	BadCredentialsDetail = "Invalid email or password"
	InvalidBodyDetail    = "Invalid request body"
	PasswordTooLong      = "Password must be at most 72 bytes"
	InvalidFieldsDetail  = "Invalid request fields"
)

// Service 由 *service.AuthService 實作
type Service interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// bindAndValidate 先 Bind 再驗證；失敗時已寫出回應，回傳 false
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: InvalidBodyDetail})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: validationDetail(err)})
	}
	return true, nil
}

// validationDetail 將 validator 錯誤轉成穩定訊息，不洩漏 Go 型別與欄位名稱
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return InvalidFieldsDetail
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+": "+fieldRule(fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func fieldRule(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	default:
		return "invalid value"
	}
}
