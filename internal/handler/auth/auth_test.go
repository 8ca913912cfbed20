package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"time"

	"civic-access/internal/model"
	"civic-access/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type fakeService struct {
	RegisterFn    func(ctx context.Context, email, password string) (*model.User, error)
	LoginFn       func(ctx context.Context, email, password string) (*service.LoginResult, error)
	CurrentUserFn func(ctx context.Context, token string) (*model.User, error)
}

func (f *fakeService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if f.RegisterFn != nil {
		return f.RegisterFn(ctx, email, password)
	}
	panic("unexpected Register")
}

func (f *fakeService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	if f.LoginFn != nil {
		return f.LoginFn(ctx, email, password)
	}
	panic("unexpected Login")
}

func (f *fakeService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if f.CurrentUserFn != nil {
		return f.CurrentUserFn(ctx, token)
	}
	panic("unexpected CurrentUser")
}

type errBinder struct{}

func (errBinder) Bind(i any, c echo.Context) error { return errors.New("bind") }

type errValidator struct{}

func (errValidator) Validate(i any) error { return errors.New("email is required") }

// structValidator 使用真正的 go-playground/validator
type structValidator struct{ v *validator.Validate }

func (s structValidator) Validate(i any) error { return s.v.Struct(i) }

type okValidator struct{}

func (okValidator) Validate(i any) error { return nil }

// helper to build echo context
func newCtx(e *echo.Echo, method, target, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = okValidator{}
	return e
}

var alice = &model.User{ID: 1, Email: "alice@example.com", PasswordHash: "$2a$10$hash", CreatedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
