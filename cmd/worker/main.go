package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"user-account-backend/internal/config"
	"user-account-backend/internal/logging"
	"user-account-backend/internal/queue"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.Setup(cfg.App.LogLevel)

	if cfg.AMQP.URL == "" {
		log.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.UserCreatedQueue, func(ctx context.Context, ev queue.UserCreatedEvent) error {
		// Stand-in for the welcome mail
		log.Info("Hi "+ev.Email, "user_id", ev.UserID, "event_id", ev.EventID)
		return nil
	}, log)

	log.Info("worker consuming", "queue", cfg.AMQP.UserCreatedQueue)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker exited")
}
