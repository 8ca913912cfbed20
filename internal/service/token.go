package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL 未設定正值 TTL 時使用
const DefaultTokenTTL = 30 * time.Minute

// Claims 定義 JWT 負載內容；Subject 為使用者 ID 的十進位字串
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity 為有效 token 所代表的身分
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// TokenService 發行與驗證 HS256 存取令牌，伺服器端不保存 session，
// token 只會因到期而失效
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

type TokenOption func(*TokenService)

// WithClock 替換發行與驗證時使用的 time.Now
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func withIDGenerator(fn func() string) TokenOption {
	return func(s *TokenService) { s.newID = fn }
}

func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL 回傳 token 有效時間
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue 依使用者 ID 與 email 產生 JWT，回傳 token 與到期時間
func (s *TokenService) Issue(userID int64, email string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        s.newID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate 依序檢查簽章、結構與到期時間
func (s *TokenService) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: subject %q", ErrTokenMalformed, claims.Subject)
	}

	return &Identity{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
