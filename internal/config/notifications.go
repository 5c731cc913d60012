package config

import (
	"fmt"
	"time"

	"catalog-admin/internal/products"
)

type Notifications struct {
	RabbitMQURL     string
	Queue           string
	ShutdownTimeout time.Duration
}

func LoadNotifications() (Notifications, error) {
	cfg := Notifications{
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		Queue:           getEnv("EVENTS_QUEUE", products.EventsQueue),
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if cfg.RabbitMQURL == "" {
		return Notifications{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}
