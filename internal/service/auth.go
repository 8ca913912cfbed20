package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civic-access/internal/model"
	"civic-access/internal/store"
)

// TokenTypeBearer 為登入回應中的 token_type
const TokenTypeBearer = "bearer"

// UserStore 是驗證流程需要的 store.Users 子集
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	Insert(ctx context.Context, email, passwordHash string) (*model.User, error)
}

// LoginResult 登入成功的結果
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *model.User
}

// AuthService 結合 store、PasswordManager 與 TokenService，
// 負責註冊、登入與目前使用者查詢
type AuthService struct {
	users     UserStore
	passwords *PasswordManager
	tokens    *TokenService
	counter   *UserCounter
	logger    *slog.Logger
}

// NewAuthService 組裝依賴；counter 可為 nil
func NewAuthService(users UserStore, passwords *PasswordManager, tokens *TokenService, counter *UserCounter, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		counter:   counter,
		logger:    logger,
	}
}

// Register 建立使用者。先查詢一次處理常見的重複情況，
// 同時註冊的競態由資料庫 unique constraint 決定
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeError(err)
	}

	hash, err := s.passwords.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Insert(ctx, email, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeError(err)
	}

	s.counter.Invalidate(ctx)
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login 驗證帳密並發行存取令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.passwords.VerifyDummy(ctx, password)
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	ok, err := s.passwords.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentialFormat) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// CurrentUser 由 token 取得使用者。除了 store 斷線以外的失敗一律為 ErrUnauthorized，
// 包裹的原因只記錄在 log
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	identity, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.InfoContext(ctx, "token rejected", "reason", err)
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.InfoContext(ctx, "token subject not found", "user_id", identity.UserID)
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, storeError(err)
	}
	return user, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
