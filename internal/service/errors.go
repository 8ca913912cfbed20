package service

import "errors"

var (
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials 同時代表 email 不存在與密碼錯誤
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidCredentialFormat = errors.New("invalid credential format")
	ErrPasswordTooLong         = errors.New("password exceeds 72 bytes")

	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
	// ErrUnauthorized 包裹實際的 token 或查詢失敗原因
	ErrUnauthorized = errors.New("unauthorized")

	ErrStoreUnavailable = errors.New("store unavailable")
)
