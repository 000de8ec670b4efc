package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/config"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	"github.com/XxZARKx/lab-proyecto2/internal/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	app := stub.NewApp(stub.NewStore(), logger)

	go func() {
		logger.Info("stub backend listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
