// @title        Civic Access API
// @version      1.0
// @description  帳號註冊、登入與 JWT 驗證的後端 API
// @host         localhost:8000
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "civic-access/docs" // 引入 swag 產出的 docs
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("service stopped", "error", err)
		exitFunc(1)
	}
}
