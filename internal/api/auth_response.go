package api

import (
	"time"

	"civic-access/internal/model"
)

// swagger:model api.SignupResponse
type SignupResponse struct {
	Message string `json:"message" example:"Account created successfully. Please log in."`
	Email   string `json:"email" example:"alice@example.com"`
}

// swagger:model api.LoginResponse
type LoginResponse struct {
	AccessToken string       `json:"access_token" example:"eyJhbGciOi..."`
	TokenType   string       `json:"token_type" example:"bearer"`
	User        UserResponse `json:"user"`
}

// swagger:model api.UserResponse
type UserResponse struct {
	ID        int64     `json:"id" example:"1"`
	Email     string    `json:"email" example:"alice@example.com"`
	CreatedAt time.Time `json:"created_at" example:"2025-05-01T15:04:05Z"`
}

// NewUserResponse 只輸出可公開的欄位，不含密碼雜湊
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
