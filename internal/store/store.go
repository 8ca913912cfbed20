// Package store persists users. Every implementation enforces email
// uniqueness with a database constraint, so concurrent inserts of the same
// email produce exactly one row.
package store

import (
	"context"
	"errors"

	"civic-access/internal/model"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnavailable marks connection-level failures; callers do not retry.
	ErrUnavailable = errors.New("store unavailable")
)

// Users is the persistence boundary the auth service depends on.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	Insert(ctx context.Context, email, passwordHash string) (*model.User, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
