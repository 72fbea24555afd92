package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ecodescarte-user-service/internal/application/services"
	"ecodescarte-user-service/internal/config"
	"ecodescarte-user-service/internal/delivery/handler"
	"ecodescarte-user-service/internal/infrastructure"
	"ecodescarte-user-service/internal/infrastructure/db"
	"ecodescarte-user-service/internal/infrastructure/db/postgres"
	"ecodescarte-user-service/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := db.Migrate(ctx, gdb, cfg.Database, logger); err != nil {
		return err
	}

	cache := infrastructure.NewRedisService(ctx, cfg.Redis, logger)
	defer cache.Close()

	events, err := infrastructure.NewNatsPublisher(cfg.NATS, logger)
	if err != nil {
		logger.Warn("events disabled", "error", err)
		events, _ = infrastructure.NewNatsPublisher(config.NATSConfig{}, logger)
	}
	defer events.Close()

	mailer, err := infrastructure.NewMailer(cfg.Mail, logger)
	if err != nil {
		return err
	}

	tokens := infrastructure.NewJWTService(cfg.JWT.Secret, cfg.JWT.SessionTTL, cfg.JWT.ResetTTL)
	userRepo := postgres.NewUserRepository(gdb)

	userService := services.NewUserService(userRepo, tokens, cache, mailer, events, logger, services.Options{
		FrontendURL:   cfg.Server.FrontendURL,
		TestRecipient: cfg.Mail.TestRecipient,
		ResetTTL:      cfg.JWT.ResetTTL,
	})
	healthService := services.NewDatabaseHealthService(userRepo, cache)

	limiter := infrastructure.NewRateLimiter(cfg.Server.RateLimitWindow, cfg.Server.RateLimitMax)
	defer limiter.Stop()

	h := handler.NewHandler(userService, healthService, cfg.Server.Env, logger)
	e := handler.NewRouter(h, tokens, limiter, cfg.Server, logger)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
