package router

import (
	"log/slog"
	"reflect"
	"strings"

	"civic-access/internal/cache"
	"civic-access/internal/handler"
	"civic-access/internal/handler/auth"
	"civic-access/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// CustomValidator 包裝 go-playground/validator 供 Echo 使用
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator 建立所有 handler 共用的驗證器；欄位名稱取自 json tag
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate 執行 struct 驗證
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Deps 是路由需要的所有依賴；Cache 可為 nil
type Deps struct {
	Logger      *slog.Logger
	Auth        auth.Service
	Tokens      middleware.TokenValidator
	Counter     handler.UserCounter
	DB          handler.Pinger
	Cache       cache.Cache
	CORSOrigins []string
}

// New 建立 Echo 實例、掛上中介層並註冊路由
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	Setup(e, d)
	return e
}

// Setup 註冊所有路由
func Setup(e *echo.Echo, d Deps) {
	e.GET("/", handler.RootHandler())
	e.GET("/stats/users", handler.UserCountHandler(d.Counter))

	// 健康檢查（需登入）
	e.GET("/ping", handler.PingHandler(d.DB, d.Cache, d.Logger), middleware.RequireAuth(d.Tokens, d.Logger))

	a := e.Group("/auth")
	a.POST("/signup", auth.SignupHandler(d.Auth))
	a.POST("/login", auth.LoginHandler(d.Auth))
	a.GET("/me", auth.MeHandler(d.Auth))

	// Swagger 文件
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
