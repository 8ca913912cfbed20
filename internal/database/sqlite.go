package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

var sqliteWithInstanceFn = migratesqlite.WithInstance

// OpenSQLite 開啟 STORE_DRIVER=sqlite 使用的本機檔案。
// ":memory:" 固定單一連線，所有查詢才會看到同一個資料庫
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("OpenSQLite: path is required")
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	sqlDB, err := sqlOpenDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %w", err)
	}
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("OpenSQLite: ping: %w", err)
	}
	return sqlDB, nil
}

// RunSQLiteMigrations 對已開啟的連線執行嵌入的 sqlite migration；
// 連線不會被關閉，由呼叫端管理
func RunSQLiteMigrations(sqlDB *sql.DB) error {
	driver, err := sqliteWithInstanceFn(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	m, err := newMigrator("migrations/sqlite", "sqlite", driver)
	if err != nil {
		return err
	}
	return up(m)
}
