// Package main запускает HTTP-сервер сервиса заказа еды.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/munchify-system/internal/config"
	"github.com/mmeshcher/munchify-system/internal/handler"
	"github.com/mmeshcher/munchify-system/internal/mailer"
	"github.com/mmeshcher/munchify-system/internal/middleware"
	"github.com/mmeshcher/munchify-system/internal/repository"
	"github.com/mmeshcher/munchify-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	dsn, err := config.BuildDSN(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("database URL error", "error", err.Error())
	}
	sugar.Infow("database configured", "dsn", config.RedactDSN(dsn))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(ctx, repository.PoolConfig{
		DSN:             dsn,
		Mode:            repository.PoolMode(cfg.PoolMode),
		MinConns:        cfg.MinConns,
		MaxConns:        cfg.MaxConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		AcquireTimeout:  cfg.AcquireTimeout,
	}, cfg.AutoMigrate, logger)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var sender mailer.Sender
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.ResendAPIKey, cfg.MailSender)
	} else {
		sender = mailer.NewNoopSender(logger)
	}

	svc := service.NewService(repo, sender, logger)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting munchify server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
