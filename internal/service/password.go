package service

import (
	"context"
	"errors"
	"fmt"

	"civic-access/internal/worker"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只看前 72 bytes，超過的部分會被靜默截斷
const maxPasswordBytes = 72

var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// PasswordManager 以 bcrypt 雜湊與驗證密碼。
// 設定 worker pool 時，bcrypt 運算在 pool 中執行，限制同時佔用的 CPU。
type PasswordManager struct {
	cost  int
	pool  worker.Pool
	dummy []byte
}

// NewPasswordManager 以指定 cost 建立；pool 可為 nil，表示直接在呼叫端執行
func NewPasswordManager(cost int, pool worker.Pool) (*PasswordManager, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcryptGenerateFromPassword([]byte("civic-access-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &PasswordManager{cost: cost, pool: pool, dummy: dummy}, nil
}

// Hash 回傳含隨機 salt 的 bcrypt 字串，同一密碼每次結果不同
func (m *PasswordManager) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	var (
		hash []byte
		err  error
	)
	if runErr := m.run(ctx, func() {
		hash, err = bcryptGenerateFromPassword([]byte(password), m.cost)
	}); runErr != nil {
		return "", runErr
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify 比對明文密碼與 bcrypt 雜湊，只有完全相同才回傳 true。
// 不符回傳 false, nil；雜湊格式錯誤回傳 false, ErrInvalidCredentialFormat。
// 超過 72 bytes 的輸入不可能由 Hash 產生，仍照常比對以維持耗時，但一律不符。
func (m *PasswordManager) Verify(ctx context.Context, password, hash string) (bool, error) {
	var err error
	if runErr := m.run(ctx, func() {
		err = bcryptCompareHashAndPassword([]byte(hash), []byte(password))
	}); runErr != nil {
		return false, runErr
	}
	switch {
	case err == nil:
		return len(password) <= maxPasswordBytes, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidCredentialFormat, err)
	}
}

// VerifyDummy 花費與真實比對相同的 bcrypt 成本，讓不存在的 email 無法從回應時間分辨
func (m *PasswordManager) VerifyDummy(ctx context.Context, password string) {
	_ = m.run(ctx, func() {
		_ = bcryptCompareHashAndPassword(m.dummy, []byte(password))
	})
}

func (m *PasswordManager) run(ctx context.Context, fn func()) error {
	if m.pool == nil {
		fn()
		return nil
	}
	return m.pool.Run(ctx, fn)
}
