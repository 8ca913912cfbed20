package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DB 為使用者 store 需要的 *pgxpool.Pool 子集：單列查詢（含 RETURNING）、
// 健康檢查與關閉
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// FakeDB 讓測試自訂每個呼叫；未設定的查詢或 Ping 會 panic
type FakeDB struct {
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	PingFn     func(ctx context.Context) error
	CloseFn    func()
}

func (f *FakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.QueryRowFn != nil {
		return f.QueryRowFn(ctx, sql, args...)
	}
	panic("unexpected QueryRow")
}

func (f *FakeDB) Ping(ctx context.Context) error {
	if f.PingFn != nil {
		return f.PingFn(ctx)
	}
	panic("unexpected Ping")
}

func (f *FakeDB) Close() {
	if f.CloseFn != nil {
		f.CloseFn()
	}
}

// FakeRow 實作 pgx.Row；ScanFn 為 nil 時回傳 Err
type FakeRow struct {
	ScanFn func(dest ...any) error
	Err    error
}

func (r FakeRow) Scan(dest ...any) error {
	if r.ScanFn != nil {
		return r.ScanFn(dest...)
	}
	return r.Err
}
