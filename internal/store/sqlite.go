package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic-access/internal/model"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLite stores users in a local SQLite file. created_at is kept as unix
// milliseconds in UTC.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, created_at FROM users WHERE email = ?`,
		email,
	)
	u, err := scanSQLiteUser(row)
	if err != nil {
		return nil, sqliteError("FindByEmail", err)
	}
	return u, nil
}

func (s *SQLite) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, created_at FROM users WHERE id = ?`,
		id,
	)
	u, err := scanSQLiteUser(row)
	if err != nil {
		return nil, sqliteError("FindByID", err)
	}
	return u, nil
}

func (s *SQLite) Insert(ctx context.Context, email, passwordHash string) (*model.User, error) {
	createdAt := s.now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, createdAt.UnixMilli(),
	)
	if err != nil {
		return nil, sqliteError("Insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, sqliteError("Insert", err)
	}
	return &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, sqliteError("Count", err)
	}
	return n, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return sqliteError("Ping", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanSQLiteUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

func sqliteError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if isSQLiteUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3lib.SQLITE_CONSTRAINT:
			return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
		}
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "users.email")
}

func isSQLiteUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// database/sql does not export errDBClosed
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_IOERR:
		return true
	}
	return false
}

var _ Users = (*SQLite)(nil)
