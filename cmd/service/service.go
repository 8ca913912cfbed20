package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"civic-access/internal/cache"
	"civic-access/internal/config"
	"civic-access/internal/database"
	"civic-access/internal/logging"
	"civic-access/internal/router"
	"civic-access/internal/service"
	"civic-access/internal/store"
	"civic-access/internal/worker"

	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

var (
	loadConfig            = config.Load
	newPgxPool            = database.NewPgxPool
	runMigrationsFn       = database.RunMigrations
	rollbackAllFn         = database.RollbackAll
	openSQLite            = database.OpenSQLite
	runSQLiteMigrationsFn = database.RunSQLiteMigrations
	newRedisClient        = cache.NewRedisClient
	newWorkerPool         = worker.NewPool
	startServer           = serve
	exitFunc              = os.Exit
)

var logOutput io.Writer = os.Stderr

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("service", flag.ContinueOnError)
	rollback := fs.Bool("rollback", false, "roll back every postgres migration and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("設定錯誤: %w", err)
	}

	logger, err := logging.New(logOutput, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if *rollback {
		if cfg.StoreDriver != config.DriverPostgres {
			return errors.New("-rollback requires STORE_DRIVER=postgres")
		}
		if err := rollbackAllFn(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("RollbackAll 失敗: %w", err)
		}
		logger.Info("migrations rolled back")
		return nil
	}

	users, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer users.Close()

	// Redis 為選用；未設定時計數器直接查資料庫
	var cch cache.Cache
	if cfg.CacheEnabled() {
		cch, err = newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("Redis 連線失敗: %w", err)
		}
		defer cch.Close()
	} else {
		logger.Info("REDIS_ADDR not set, user counter cache disabled")
	}

	wp := newWorkerPool(cfg.WorkerCount)
	defer wp.Stop()

	passwords, err := service.NewPasswordManager(cfg.BcryptCost, wp)
	if err != nil {
		return err
	}
	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn("SECRET_KEY is the built-in default; set it before deploying")
	}
	tokens, err := service.NewTokenService([]byte(cfg.SecretKey), cfg.TokenTTL)
	if err != nil {
		return err
	}
	counter := service.NewUserCounter(users, cch, cfg.CounterCacheTTL, logger)
	authSvc := service.NewAuthService(users, passwords, tokens, counter, logger)

	e := router.New(router.Deps{
		Logger:      logger,
		Auth:        authSvc,
		Tokens:      tokens,
		Counter:     counter,
		DB:          users,
		Cache:       cch,
		CORSOrigins: cfg.CORSAllowOrigins,
	})

	logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "env", cfg.AppEnv)
	return startServer(ctx, e, cfg.HTTPAddr)
}

// openStore 依 STORE_DRIVER 開啟連線並執行 migration
func openStore(ctx context.Context, cfg *config.Config) (store.Users, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := newPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("DB 連線失敗: %w", err)
		}
		if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("Migration 執行失敗: %w", err)
		}
		return store.NewPostgres(db), nil
	default:
		db, err := openSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("SQLite 開啟失敗: %w", err)
		}
		if err := runSQLiteMigrationsFn(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("Migration 執行失敗: %w", err)
		}
		return store.NewSQLite(db), nil
	}
}

// serve 啟動 HTTP 服務，ctx 結束時優雅關閉
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
