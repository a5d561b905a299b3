package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressmark/blog-platform/internal/api"
	"github.com/pressmark/blog-platform/internal/core/ports"
	"github.com/pressmark/blog-platform/internal/infrastructure/config"
	mongodb "github.com/pressmark/blog-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/pressmark/blog-platform/internal/infrastructure/db/redis"
	"github.com/pressmark/blog-platform/internal/infrastructure/mail"
	"github.com/pressmark/blog-platform/internal/infrastructure/queue"
	"github.com/pressmark/blog-platform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Blog Platform Auth API
// @version      1.0
// @description  Authentication and session lifecycle service for the blog platform.
// @BasePath     /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	var delivery ports.Mailer
	if cfg.SMTP.Host != "" {
		delivery = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.User, cfg.SMTP.Pass, cfg.BaseURL)
	} else {
		delivery = mail.NewLogMailer(log)
	}
	mailQueue := queue.NewMailQueue(0, delivery, log)
	mailQueue.Start(ctx)

	e := api.NewRouter(db, rdb, mailQueue, cfg, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
