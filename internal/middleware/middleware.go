package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"civic-access/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	// ContextIdentityKey 存放驗證後的 *service.Identity
	ContextIdentityKey = "identity"

	// CredentialsDetail 是所有 token 失敗時客戶端唯一看到的訊息
	CredentialsDetail = "Could not validate credentials"
)

// TokenValidator 由 *service.TokenService 實作
type TokenValidator interface {
	Validate(token string) (*service.Identity, error)
}

// TokenFromRequest 依序讀取 ?token= 與 Authorization: Bearer
func TokenFromRequest(c echo.Context) string {
	if tok := strings.TrimSpace(c.QueryParam("token")); tok != "" {
		return tok
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Unauthorized 回傳所有憑證失敗共用的 401
func Unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, CredentialsDetail)
}

// RequireAuth 驗證 token 並把 Identity 放入 context
func RequireAuth(tokens TokenValidator, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := TokenFromRequest(c)
			if tok == "" {
				return Unauthorized(c)
			}
			identity, err := tokens.Validate(tok)
			if err != nil {
				logger.DebugContext(c.Request().Context(), "token rejected", "path", c.Path(), "reason", err)
				return Unauthorized(c)
			}
			c.Set(ContextIdentityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom 取出 RequireAuth 設定的 Identity
func IdentityFrom(c echo.Context) (*service.Identity, bool) {
	id, ok := c.Get(ContextIdentityKey).(*service.Identity)
	return id, ok
}
