package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"civic-access/internal/cache"
	"civic-access/internal/database"
	"civic-access/internal/model"
	"civic-access/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	FindByEmailFn func(ctx context.Context, email string) (*model.User, error)
	FindByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	InsertFn      func(ctx context.Context, email, hash string) (*model.User, error)
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.FindByEmailFn != nil {
		return f.FindByEmailFn(ctx, email)
	}
	panic("unexpected FindByEmail")
}

func (f *fakeUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	panic("unexpected FindByID")
}

func (f *fakeUsers) Insert(ctx context.Context, email, hash string) (*model.User, error) {
	if f.InsertFn != nil {
		return f.InsertFn(ctx, email, hash)
	}
	panic("unexpected Insert")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuth(t *testing.T, users UserStore, clock *fakeClock, counter *UserCounter) *AuthService {
	t.Helper()
	return NewAuthService(users, newPasswords(t), newTokens(t, "secret", clock), counter, discardLogger())
}

func notFound(context.Context, string) (*model.User, error) { return nil, store.ErrNotFound }

func TestRegister(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}

	t.Run("success", func(t *testing.T) {
		var stored string
		users := &fakeUsers{
			FindByEmailFn: notFound,
			InsertFn: func(_ context.Context, email, hash string) (*model.User, error) {
				stored = hash
				return &model.User{ID: 1, Email: email, PasswordHash: hash, CreatedAt: clock.t}, nil
			},
		}
		var deleted []string
		fc := &cache.FakeCache{DelFn: func(_ context.Context, keys ...string) *redis.IntCmd {
			deleted = keys
			return redis.NewIntResult(1, nil)
		}}
		s := newAuth(t, users, clock, NewUserCounter(nil, fc, time.Second, discardLogger()))

		u, err := s.Register(ctx, "a@x.com", "p1")
		require.NoError(t, err)
		require.Equal(t, int64(1), u.ID)
		require.NotEqual(t, "p1", stored)
		ok, err := s.passwords.Verify(ctx, "p1", stored)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []string{userCountKey}, deleted)
	})

	t.Run("duplicate on lookup", func(t *testing.T) {
		users := &fakeUsers{FindByEmailFn: func(context.Context, string) (*model.User, error) {
			return &model.User{ID: 1}, nil
		}}
		_, err := newAuth(t, users, clock, nil).Register(ctx, "a@x.com", "p1")
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("duplicate on insert", func(t *testing.T) {
		users := &fakeUsers{
			FindByEmailFn: notFound,
			InsertFn: func(context.Context, string, string) (*model.User, error) {
				return nil, store.ErrDuplicateEmail
			},
		}
		_, err := newAuth(t, users, clock, nil).Register(ctx, "a@x.com", "p1")
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("store unavailable", func(t *testing.T) {
		users := &fakeUsers{FindByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, fmt.Errorf("FindByEmail: %w", store.ErrUnavailable)
		}}
		_, err := newAuth(t, users, clock, nil).Register(ctx, "a@x.com", "p1")
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("insert failure", func(t *testing.T) {
		users := &fakeUsers{
			FindByEmailFn: notFound,
			InsertFn: func(context.Context, string, string) (*model.User, error) {
				return nil, errors.New("boom")
			},
		}
		_, err := newAuth(t, users, clock, nil).Register(ctx, "a@x.com", "p1")
		require.EqualError(t, err, "boom")
	})

	t.Run("password too long", func(t *testing.T) {
		users := &fakeUsers{FindByEmailFn: notFound}
		long := make([]byte, 100)
		for i := range long {
			long[i] = 'x'
		}
		_, err := newAuth(t, users, clock, nil).Register(ctx, "a@x.com", string(long))
		require.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	passwords := newPasswords(t)
	hash, err := passwords.Hash(ctx, "p1")
	require.NoError(t, err)
	alice := &model.User{ID: 9, Email: "a@x.com", PasswordHash: hash, CreatedAt: clock.t}

	users := &fakeUsers{FindByEmailFn: func(_ context.Context, email string) (*model.User, error) {
		if email == alice.Email {
			return alice, nil
		}
		return nil, store.ErrNotFound
	}}
	s := newAuth(t, users, clock, nil)

	t.Run("success", func(t *testing.T) {
		res, err := s.Login(ctx, "a@x.com", "p1")
		require.NoError(t, err)
		require.Equal(t, TokenTypeBearer, res.TokenType)
		require.Equal(t, alice, res.User)

		id, err := s.tokens.Validate(res.AccessToken)
		require.NoError(t, err)
		require.Equal(t, int64(9), id.UserID)
		require.Equal(t, "a@x.com", id.Email)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := s.Login(ctx, "a@x.com", "wrong")
		_, errUnknown := s.Login(ctx, "nobody@x.com", "p1")
		require.ErrorIs(t, errWrong, ErrInvalidCredentials)
		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("suffix past 72 bytes is not accepted", func(t *testing.T) {
		long := strings.Repeat("k", maxPasswordBytes)
		longHash, err := passwords.Hash(ctx, long)
		require.NoError(t, err)
		bob := &fakeUsers{FindByEmailFn: func(context.Context, string) (*model.User, error) {
			return &model.User{ID: 2, Email: "b@x.com", PasswordHash: longHash}, nil
		}}
		s := newAuth(t, bob, clock, nil)

		_, err = s.Login(ctx, "b@x.com", long+"extra")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = s.Login(ctx, "b@x.com", long)
		require.NoError(t, err)
	})

	t.Run("corrupted stored hash", func(t *testing.T) {
		broken := &fakeUsers{FindByEmailFn: func(context.Context, string) (*model.User, error) {
			return &model.User{ID: 1, Email: "a@x.com", PasswordHash: "$2a$10$short"}, nil
		}}
		_, err := newAuth(t, broken, clock, nil).Login(ctx, "a@x.com", "p1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("store unavailable", func(t *testing.T) {
		down := &fakeUsers{FindByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, store.ErrUnavailable
		}}
		_, err := newAuth(t, down, clock, nil).Login(ctx, "a@x.com", "p1")
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	alice := &model.User{ID: 3, Email: "a@x.com", CreatedAt: clock.t}
	users := &fakeUsers{FindByIDFn: func(_ context.Context, id int64) (*model.User, error) {
		if id == alice.ID {
			return alice, nil
		}
		return nil, store.ErrNotFound
	}}
	s := newAuth(t, users, clock, nil)

	tok, _, err := s.tokens.Issue(alice.ID, alice.Email)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		u, err := s.CurrentUser(ctx, tok)
		require.NoError(t, err)
		require.Equal(t, alice, u)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.CurrentUser(ctx, "garbage")
		require.ErrorIs(t, err, ErrUnauthorized)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other, _, err := newTokens(t, "other", clock).Issue(alice.ID, alice.Email)
		require.NoError(t, err)
		_, err = s.CurrentUser(ctx, other)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.ErrorIs(t, err, ErrTokenInvalidSignature)
	})

	t.Run("user gone", func(t *testing.T) {
		ghost, _, err := s.tokens.Issue(99, "ghost@x.com")
		require.NoError(t, err)
		_, err = s.CurrentUser(ctx, ghost)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("store unavailable", func(t *testing.T) {
		down := &fakeUsers{FindByIDFn: func(context.Context, int64) (*model.User, error) {
			return nil, store.ErrUnavailable
		}}
		_, err := newAuth(t, down, clock, nil).CurrentUser(ctx, tok)
		require.ErrorIs(t, err, ErrStoreUnavailable)
		require.NotErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		saved := clock.t
		t.Cleanup(func() { clock.t = saved })
		clock.t = clock.t.Add(31 * time.Minute)
		_, err := s.CurrentUser(ctx, tok)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestRegisterAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunSQLiteMigrations(db))
	users := store.NewSQLite(db)
	t.Cleanup(func() { _ = users.Close() })

	s := newAuth(t, users, &fakeClock{t: time.Now()}, nil)

	_, err = s.Register(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	_, err = s.Register(ctx, "a@x.com", "p2")
	require.ErrorIs(t, err, ErrDuplicateEmail)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register(ctx, "race@x.com", "p1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateEmail)
	}
	require.Equal(t, 1, succeeded)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
