package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/approval-gate/internal/config"
	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/handler"
	"github.com/msomdec/approval-gate/internal/notify"
	"github.com/msomdec/approval-gate/internal/repository"
	"github.com/msomdec/approval-gate/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "config", cfg)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.Open(startCtx, cfg)
	cancelStart()
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("store ready", "driver", cfg.StoreDriver)

	tokens := service.NewJWTIssuer(cfg.JWTSecret)
	accounts := service.NewAccountService(
		store.Users(),
		service.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		newNotifier(cfg),
		service.WithPhoneRegion(cfg.PhoneRegion),
		service.WithUniformLoginErrors(cfg.UniformLoginErrors),
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newNotifier(cfg config.Config) domain.Notifier {
	if !cfg.SMTPEnabled() {
		slog.Warn("SMTP_HOST not set; approval requests will only be logged")
		return notify.NewLogNotifier(cfg.AdminEmail)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.AdminEmail,
	})
}
