package main

import (
	"AgroAssistant/internal/app/bootstrap"
	"AgroAssistant/internal/app/janitor"
	"AgroAssistant/internal/app/server"
	"AgroAssistant/internal/config"
	"AgroAssistant/internal/service/metrics"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// создаём регистратор zap
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil && !errors.Is(err, syscall.ENOTTY) && !errors.Is(err, syscall.EINVAL) {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	sugar.Infow(
		"Starting app",
		"DebugMode", cfg.DebugMode,
		"BindAddr", cfg.BindAddr,
		"GenerationProvider", cfg.GenerationProvider,
		"TranslatorProvider", cfg.TranslatorProvider,
	)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to wire services", "error", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			sugar.Warnw("Failed to close clients", "error", err)
		}
	}()

	srv := server.New(cfg, app.Sessions, app.TTS, sugar)
	if err := srv.Start(); err != nil {
		sugar.Errorw("Failed to start HTTP server", "error", err)
		return
	}

	go func() {
		if err := janitor.New(app.Sessions, cfg.SessionIdleTTL, cfg.JanitorInterval, sugar).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			sugar.Warnw("Janitor stopped", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		sugar.Warnw("HTTP server shutdown failed", "error", err)
	}
}
