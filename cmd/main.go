package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/config"
	httpserver "github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server"
	sl "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/logger"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/mail"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/mail/smtp"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/rabbitmq"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/session"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting auth service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	store, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	sender, closeSender, err := setupSender(cfg, log)
	if err != nil {
		log.Error("failed to set up email transport", sl.Err(err))
		os.Exit(1)
	}
	defer closeSender()

	accounts := account.New(log, store, cfg.Auth.VerificationCodeTTL, cfg.Auth.ResetCodeTTL)
	sessions := session.New(log, store, accounts, cfg.Auth.SessionTTL)

	if err := accounts.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error("failed to seed admin account", sl.Err(err))
		os.Exit(1)
	}

	router := httpserver.NewRouter(log, accounts, sessions, sender, store)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupSender(cfg *config.Config, log *slog.Logger) (mail.Sender, func(), error) {
	switch cfg.Email.Transport {
	case "queue":
		client, err := rabbitmq.New(cfg.Email.RabbitMQ.URL, cfg.Email.RabbitMQ.QueueName)
		if err != nil {
			return nil, nil, err
		}

		return client, client.Close, nil
	case "smtp":
		mailer := smtp.New(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
			cfg.Email.SMTP.From,
		)

		return mailer, func() {}, nil
	default:
		return mail.NewLogSender(log), func() {}, nil
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
