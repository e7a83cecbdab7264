package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/chess-engine-http/internal/chessbuilder"
	appcfg "github.com/park285/chess-engine-http/internal/config"
	"github.com/park285/chess-engine-http/internal/notify"
	"github.com/park285/chess-engine-http/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Console:   cfg.LogToStdout,
		ToFile:    cfg.LogToFile,
		FilePath:  cfg.LogFile,
		AddCaller: cfg.LogCaller,
	}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	deps, err := chessbuilder.New(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Fatal("chess init error", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	logger.Info("chess engine http api",
		zap.String("addr", cfg.Addr()),
		zap.Strings("endpoints", []string{"POST /start", "POST /move", "GET /status", "GET /board", "GET /healthz"}),
		zap.Int("depth", cfg.EngineDepth),
		zap.Int("skill_level", cfg.EngineSkillLevel),
		zap.Int("threads", cfg.EngineThreads),
		zap.Int("hash_mb", cfg.EngineHashMB),
		zap.Duration("move_time", cfg.MoveTime()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- deps.Server.ListenAndServe(ctx) }()

	go func() {
		nctx, ncancel := context.WithTimeout(ctx, 30*time.Second)
		defer ncancel()
		notify.Announce(nctx, deps.Notifier, deps.Formatter.Startup(publicURL(cfg)), logger)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		if err := <-serveErr; err != nil {
			logger.Error("http server shutdown", zap.Error(err))
		}
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
			_ = deps.Close()
			_ = logger.Sync()
			os.Exit(1)
		}
	}
}

// publicURL is PUBLIC_URL, or the local listen address when unset.
func publicURL(cfg *appcfg.AppConfig) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	host := cfg.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Port)
}
