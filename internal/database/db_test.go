package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestFakeDB(t *testing.T) {
	db := &FakeDB{}
	require.Panics(t, func() { _ = db.QueryRow(context.Background(), "") })
	require.Panics(t, func() { _ = db.Ping(context.Background()) })
	db.Close()

	var gotSQL string
	var gotArgs []any
	pingCalled := false
	closeCalled := false

	db.QueryRowFn = func(ctx context.Context, s string, args ...any) pgx.Row {
		gotSQL, gotArgs = s, args
		return FakeRow{Err: pgx.ErrNoRows}
	}
	db.PingFn = func(ctx context.Context) error { pingCalled = true; return nil }
	db.CloseFn = func() { closeCalled = true }

	err := db.QueryRow(context.Background(), "SELECT 1 WHERE $1", "a@x.com").Scan()
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.Equal(t, "SELECT 1 WHERE $1", gotSQL)
	require.Equal(t, []any{"a@x.com"}, gotArgs)
	require.NoError(t, db.Ping(context.Background()))
	db.Close()
	require.True(t, pingCalled)
	require.True(t, closeCalled)
}

func TestFakeRow(t *testing.T) {
	var n int64
	row := FakeRow{ScanFn: func(dest ...any) error {
		*dest[0].(*int64) = 3
		return nil
	}}
	require.NoError(t, row.Scan(&n))
	require.Equal(t, int64(3), n)

	require.NoError(t, FakeRow{}.Scan())
	require.EqualError(t, FakeRow{Err: errors.New("scan")}.Scan(), "scan")
}
