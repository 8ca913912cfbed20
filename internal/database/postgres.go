package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	src "github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const pingTimeout = 5 * time.Second

// migrateInstance 只暴露測試需要替換的方法
type migrateInstance interface {
	Up() error
	Down() error
}

var (
	pgxpoolNew             = pgxpool.New
	pingPool               = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
	closePool              = func(p *pgxpool.Pool) { p.Close() }
	sqlOpenDB              = sql.Open
	postgresWithInstanceFn = postgres.WithInstance
	iofsNewFn              = iofs.New
	migrateNewWithInstance = func(sourceName string, sourceDriver src.Driver, databaseName string, databaseDriver dbdriver.Driver) (migrateInstance, error) {
		m, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, databaseDriver)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
)

// NewPgxPool 建立連線池並在短超時內確認資料庫可連線
func NewPgxPool(ctx context.Context, url string) (DB, error) {
	pool, err := pgxpoolNew(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("NewPgxPool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pingPool(pingCtx, pool); err != nil {
		closePool(pool)
		return nil, fmt.Errorf("NewPgxPool: ping: %w", err)
	}
	return pool, nil
}

// RunMigrations 嵌入並執行 postgres migration (up all)
func RunMigrations(dbURL string) error {
	m, closeFn, err := newPostgresMigrator(dbURL)
	if err != nil {
		return err
	}
	defer closeFn()
	return up(m)
}

// RollbackAll 退回所有 postgres migration (down to version 0)
func RollbackAll(dbURL string) error {
	m, closeFn, err := newPostgresMigrator(dbURL)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("RollbackAll: %w", err)
	}
	return nil
}

func newPostgresMigrator(dbURL string) (migrateInstance, func(), error) {
	sqlDB, err := sqlOpenDB("pgx", dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open migration db: %w", err)
	}
	closeFn := func() { _ = sqlDB.Close() }

	driver, err := postgresWithInstanceFn(sqlDB, &postgres.Config{})
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := newMigrator("migrations/postgres", "postgres", driver)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return m, closeFn, nil
}

func newMigrator(dir, databaseName string, driver dbdriver.Driver) (migrateInstance, error) {
	sourceDriver, err := iofsNewFn(fs.FS(migrationsFS), dir)
	if err != nil {
		return nil, fmt.Errorf("migration source %s: %w", dir, err)
	}
	m, err := migrateNewWithInstance("iofs", sourceDriver, databaseName, driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}

func up(m migrateInstance) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
