package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog-admin/internal/products"
)

const (
	defaultHTTPAddr          = ":5000"
	defaultMongoURI          = "mongodb://localhost:27017"
	defaultMongoDatabase     = "admin-panel"
	defaultMongoCollection   = "products"
	defaultUploadDir         = "uploads"
	defaultAdminUsername     = "rayyan"
	defaultAdminPassword     = "rayyan123"
	defaultAdminToken        = "admin-token"
	defaultCORSOrigins       = "*"
	defaultShutdownTimeout   = 10 * time.Second
	defaultMongoPingTimeout  = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

type Catalog struct {
	HTTPAddr           string
	MongoURI           string
	MongoDatabase      string
	MongoCollection    string
	UploadDir          string
	MaxUploadBytes     int64
	AdminUsername      string
	AdminPassword      string
	AdminToken         string
	RequireToken       bool
	CORSAllowedOrigins []string
	RabbitMQURL        string
	EventsQueue        string
	ShutdownTimeout    time.Duration
	MongoPingTimeout   time.Duration
	ReadHeaderTimeout  time.Duration
}

func LoadCatalog() (Catalog, error) {
	cfg := Catalog{
		HTTPAddr:           getEnv("HTTP_ADDR", defaultHTTPAddr),
		MongoURI:           getEnv("MONGODB_URI", defaultMongoURI),
		MongoDatabase:      getEnv("MONGODB_DATABASE", defaultMongoDatabase),
		MongoCollection:    getEnv("MONGODB_COLLECTION", defaultMongoCollection),
		UploadDir:          getEnv("UPLOAD_DIR", defaultUploadDir),
		AdminUsername:      getEnv("ADMIN_USERNAME", defaultAdminUsername),
		AdminPassword:      getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		AdminToken:         getEnv("ADMIN_TOKEN", defaultAdminToken),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		EventsQueue:        getEnv("EVENTS_QUEUE", products.EventsQueue),
		ShutdownTimeout:    defaultShutdownTimeout,
		MongoPingTimeout:   defaultMongoPingTimeout,
		ReadHeaderTimeout:  defaultReadHeaderTimeout,
	}

	if raw := getEnv("REQUIRE_TOKEN", ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Catalog{}, fmt.Errorf("REQUIRE_TOKEN must be a boolean, got %q", raw)
		}
		cfg.RequireToken = v
	}

	if raw := getEnv("MAX_UPLOAD_BYTES", ""); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return Catalog{}, fmt.Errorf("MAX_UPLOAD_BYTES must be a non-negative integer, got %q", raw)
		}
		cfg.MaxUploadBytes = v
	}

	if err := checkOrigins(cfg.CORSAllowedOrigins); err != nil {
		return Catalog{}, err
	}

	return cfg, nil
}

// checkOrigins accepts either a lone "*" or a list of http(s) origins.
func checkOrigins(origins []string) error {
	if len(origins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	if len(origins) == 1 && origins[0] == "*" {
		return nil
	}
	for _, origin := range origins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS entry %q must start with http:// or https://, or be a lone \"*\"", origin)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
