package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/notifications"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadNotifications()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("connect rabbitmq", "error", err)
		return 1
	}
	defer conn.Close()

	consumer, err := notifications.NewConsumer(conn, cfg.Queue, logger)
	if err != nil {
		logger.Error("init consumer", "error", err)
		return 1
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("notifications service started", "queue", cfg.Queue)
		errCh <- consumer.Listen(ctx)
	}()

	if err := awaitConsumer(ctx, errCh, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("consumer failed", "error", err)
		return 1
	}

	logger.Info("notifications service stopped")
	return 0
}

// awaitConsumer blocks until the consumer exits on its own, or until a signal
// arrives and the consumer drains within timeout.
func awaitConsumer(ctx context.Context, errCh <-chan error, timeout time.Duration, logger *slog.Logger) error {
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case err := <-errCh:
		return err
	case <-deadline.C:
		logger.Warn("consumer shutdown timeout reached")
		return nil
	}
}
