package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Server   ServerConfig
	CORS     CORSConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Sentry   SentryConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	Timeout     time.Duration
	PoolSize    int
	MaxOverflow int
	AutoMigrate bool
}

type JWTConfig struct {
	Secret             string
	Algorithm          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port           string
	GinMode        string
	RequestTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	URI string
	TTL time.Duration
}

type AMQPConfig struct {
	URL              string
	UserCreatedQueue string
}

type SentryConfig struct {
	DSN string
}

type WorkerConfig struct {
	HashWorkers   int
	SweepInterval time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", "mysql"),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "3306"),
			User:        getEnv("DB_USER", "root"),
			Password:    getEnv("DB_PASSWORD", ""),
			Database:    getEnv("DB_NAME", "user_accounts"),
			Timeout:     parseDuration("DB_TIMEOUT", getEnv("DB_TIMEOUT", "30s"), 30*time.Second),
			PoolSize:    parseInt("DB_POOL_SIZE", getEnv("DB_POOL_SIZE", "10"), 10),
			MaxOverflow: parseInt("DB_MAX_OVERFLOW", getEnv("DB_MAX_OVERFLOW", "5"), 5),
			AutoMigrate: parseBool(getEnv("DB_AUTO_MIGRATE", "true")),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			Algorithm:          getEnv("JWT_ALGORITHM", "HS256"),
			AccessTokenExpiry:  parseSeconds("JWT_ACCESS_EXPIRES_IN", getEnv("JWT_ACCESS_EXPIRES_IN", "36000"), 36000*time.Second),
			RefreshTokenExpiry: parseSeconds("JWT_REFRESH_EXPIRES_IN", getEnv("JWT_REFRESH_EXPIRES_IN", "604800"), 604800*time.Second),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			RequestTimeout: parseDuration("REQUEST_TIMEOUT", getEnv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Redis: RedisConfig{
			URI: getEnv("REDIS_URI", ""),
			TTL: parseDuration("CACHE_TTL", getEnv("CACHE_TTL", "5m"), 5*time.Minute),
		},
		AMQP: AMQPConfig{
			URL:              getEnv("AMQP_URL", ""),
			UserCreatedQueue: getEnv("USER_CREATED_QUEUE", "user.created"),
		},
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
		Worker: WorkerConfig{
			HashWorkers:   parseInt("HASH_WORKERS", getEnv("HASH_WORKERS", "0"), 0),
			SweepInterval: parseDuration("SWEEP_INTERVAL", getEnv("SWEEP_INTERVAL", "1h"), time.Hour),
		},
	}

	return config
}

// Validate reports configuration that would make the service insecure or unusable
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWT.Algorithm))
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Database.PoolSize <= 0 {
		errs = append(errs, errors.New("DB_POOL_SIZE must be positive"))
	}
	if c.Database.MaxOverflow < 0 {
		errs = append(errs, errors.New("DB_MAX_OVERFLOW must not be negative"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.Server.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("invalid duration, using default", slog.String("key", key), slog.String("value", s))
		return fallback
	}
	return duration
}

// parseSeconds reads a whole number of seconds
func parseSeconds(key, s string, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		slog.Warn("invalid seconds value, using default", slog.String("key", key), slog.String("value", s))
		return fallback
	}
	return time.Duration(n) * time.Second
}

func parseInt(key, s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		slog.Warn("invalid integer, using default", slog.String("key", key), slog.String("value", s))
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
