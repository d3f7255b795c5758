// Command api serves the task manager REST API.
//
//	@title						Task Manager API
//	@version					1.0
//	@description				Multi-user task manager: accounts, sessions, avatars and per-owner tasks.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-envconfig"

	"github.com/taskhub/task-api/internal/api"
	"github.com/taskhub/task-api/internal/core/service"
	"github.com/taskhub/task-api/internal/infrastructure/config"
	"github.com/taskhub/task-api/internal/infrastructure/db/mongo"
	"github.com/taskhub/task-api/internal/infrastructure/db/redis"
	"github.com/taskhub/task-api/internal/infrastructure/imaging"
	"github.com/taskhub/task-api/internal/infrastructure/queue"
	"github.com/taskhub/task-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, envconfig.OsLookuper())
	if err != nil {
		logger.Init(logger.Options{Service: "task-api"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "task-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserRepository(db)
	tasks := mongo.NewTaskRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, tasks); err != nil {
		return err
	}

	// Redis only backs the login throttle; the API runs without it.
	var rdb *goredis.Client
	rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
	} else {
		defer rdb.Close()
	}

	// --- Services ---
	sweeper := queue.NewSweeper(cfg.SweepWorkers, tasks, logger.Named("sweeper"))
	sweeper.Start(ctx)

	tokens := service.NewTokenService(users, cfg.JWTSecret)
	accounts := service.NewAccountService(
		users,
		tasks,
		tokens,
		imaging.NewAvatarProcessor(),
		service.AccountOptions{BcryptCost: cfg.BcryptCost, MaxPhotoBytes: cfg.MaxPhotoBytes},
		logger.Named("accounts"),
	).WithOrphanSweeper(sweeper)
	if rdb != nil {
		accounts.WithLoginLimiter(redis.NewLoginThrottle(rdb, cfg.Login.MaxAttempts, cfg.Login.Window))
	}
	taskService := service.NewTaskService(tasks, logger.Named("tasks"))

	e := api.NewRouter(api.Dependencies{
		Accounts:       accounts,
		Tasks:          taskService,
		Authenticator:  tokens,
		Mongo:          db,
		Redis:          rdb,
		Logger:         logger.Named("http"),
		RequestTimeout: cfg.RequestTimeout,
		MaxPhotoBytes:  cfg.MaxPhotoBytes,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
