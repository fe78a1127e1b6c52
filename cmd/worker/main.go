package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/kikite/backend-order/internal/config"
	"github.com/kikite/backend-order/internal/db"
	"github.com/kikite/backend-order/internal/events"
	"github.com/kikite/backend-order/internal/obs"
	"github.com/kikite/backend-order/internal/postal"
	"github.com/kikite/backend-order/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	handler := &tasks.Handler{
		Postal: postal.Store{Pool: pool},
		Bus:    &events.Bus{Store: events.PGStore{Pool: pool}},
		Logger: logger,
	}

	mux := asynq.NewServeMux()
	handler.Register(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{"default": 1},
		},
	)

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}
