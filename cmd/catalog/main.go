package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	producthttp "catalog-admin/internal/products/http"
	"catalog-admin/internal/products/messaging"
	"catalog-admin/internal/products/repository"
	"catalog-admin/internal/products/service"
	"catalog-admin/internal/products/storage"

	_ "catalog-admin/docs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	metricCreatedTotal  = "products_created_total"
	metricUpdatedTotal  = "products_updated_total"
	metricDeletedTotal  = "products_deleted_total"
	metricLoginAttempts = "login_attempts_total"
)

// @title        Catalog Admin API
// @version      1.0
// @description  Product catalog administration with image uploads.
// @host         localhost:5000
// @BasePath     /
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadCatalog()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("connect mongodb", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.MongoPingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Error("ping mongodb", "error", err)
		return 1
	}

	images, err := storage.NewDisk(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Error("init upload dir", "error", err)
		return 1
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		logger.Error("init publisher", "error", err)
		return 1
	}
	defer closePublisher()

	counters := service.Counters{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricCreatedTotal,
			Help: "Total number of products created",
		}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricUpdatedTotal,
			Help: "Total number of products updated",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricDeletedTotal,
			Help: "Total number of products deleted",
		}),
	}
	loginAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricLoginAttempts,
		Help: "Login attempts by result",
	}, []string{"result"})
	prometheus.MustRegister(counters.Created, counters.Updated, counters.Deleted, loginAttempts)

	repo := repository.NewMongo(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
	svc := service.New(repo, images, publisher, logger, counters)
	creds := auth.NewStatic(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminToken)

	routes := producthttp.Routes{
		Products:  producthttp.NewHandler(svc, logger),
		Auth:      producthttp.NewAuthHandler(creds, loginAttempts),
		Health:    repo,
		UploadDir: images.Root(),
	}
	if cfg.RequireToken {
		routes.Guard = producthttp.RequireToken(creds)
	}

	corsMiddleware, err := producthttp.CORSMiddleware(cfg.CORSAllowedOrigins)
	if err != nil {
		logger.Error("init cors", "error", err)
		return 1
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware)
	router.Use(producthttp.RequestIDMiddleware())
	router.Use(producthttp.AccessLogMiddleware(logger))
	producthttp.RegisterRoutes(router, routes)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("catalog service started",
			"addr", cfg.HTTPAddr,
			"upload_dir", cfg.UploadDir,
			"require_token", cfg.RequireToken,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	logger.Info("catalog service stopped")
	return exitCode
}

// newPublisher falls back to logging events when no broker is configured.
func newPublisher(cfg config.Catalog, logger *slog.Logger) (service.Publisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, product events are logged only")
		return messaging.NewLogPublisher(logger), func() {}, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := messaging.NewRabbitPublisher(conn, cfg.EventsQueue)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return publisher, func() {
		_ = publisher.Close()
		_ = conn.Close()
	}, nil
}
