package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"civic-access/internal/database"
	"civic-access/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Postgres stores users in the users table through a pgx pool.
type Postgres struct {
	db database.DB
}

func NewPostgres(db database.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := p.db.QueryRow(ctx,
		`SELECT id, email, password, created_at
		 FROM users WHERE email = $1`,
		email,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, pgError("FindByEmail", err)
	}
	return u, nil
}

func (p *Postgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := p.db.QueryRow(ctx,
		`SELECT id, email, password, created_at
		 FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, pgError("FindByID", err)
	}
	return u, nil
}

func (p *Postgres) Insert(ctx context.Context, email, passwordHash string) (*model.User, error) {
	u := &model.User{Email: email, PasswordHash: passwordHash}
	row := p.db.QueryRow(ctx,
		`INSERT INTO users (email, password)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		email,
		passwordHash,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, pgError("Insert", err)
	}
	return u, nil
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, pgError("Count", err)
	}
	return n, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		return pgError("Ping", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func pgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if isConnError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnError(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

var _ Users = (*Postgres)(nil)
