package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTSecret      = "change-this-in-production"
	defaultIdentityPepper = "change-this-pepper-in-production"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Session   SessionConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	TrustedProxies []string
}

// IsProduction reports whether the server runs in production mode
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// TLSEnabled reports whether both certificate and key are configured
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// Enabled reports whether a Redis URL is configured
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// RabbitMQConfig holds RabbitMQ configuration. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// SessionConfig holds session token and cookie configuration
type SessionConfig struct {
	Secret         string
	TTL            time.Duration
	SecureCookies  bool
	AllowBearer    bool
	CSRFCookieTTL  time.Duration
	IdempotencyTTL time.Duration
}

// SecurityConfig holds hashing and transport settings
type SecurityConfig struct {
	IdentityPepper string
	BcryptCost     int
	RequireHTTPS   bool
}

// RateLimitConfig holds credential endpoint throttling
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	BacklogInterval time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")
	production := env == "production"

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            env,
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "payportal"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", !production),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "payment_events"),
		},
		Session: SessionConfig{
			Secret:         getEnv("JWT_SECRET", defaultJWTSecret),
			TTL:            getEnvAsDuration("SESSION_TTL", time.Hour),
			SecureCookies:  getEnvAsBool("COOKIE_SECURE", true),
			AllowBearer:    getEnvAsBool("SESSION_ALLOW_BEARER", false),
			CSRFCookieTTL:  getEnvAsDuration("CSRF_COOKIE_TTL", time.Hour),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Security: SecurityConfig{
			IdentityPepper: getEnv("IDENTITY_PEPPER", defaultIdentityPepper),
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 12),
			RequireHTTPS:   getEnvAsBool("REQUIRE_HTTPS", production),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts: getEnvAsInt("RATE_LIMIT_MAX", 10),
			Window:      getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Jobs: JobsConfig{
			BacklogInterval: getEnvAsDuration("BACKLOG_JOB_INTERVAL", 30*time.Second),
		},
	}
}

// Validate rejects settings that are unsafe to run with
func (c *Config) Validate() error {
	var errs []error
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.RateLimit.MaxAttempts <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if c.Server.IsProduction() {
		if c.Session.Secret == defaultJWTSecret || len(c.Session.Secret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 characters in production"))
		}
		if c.Security.IdentityPepper == defaultIdentityPepper || len(c.Security.IdentityPepper) < 32 {
			errs = append(errs, errors.New("IDENTITY_PEPPER must be set to at least 32 characters in production"))
		}
		if !c.Session.SecureCookies {
			errs = append(errs, errors.New("COOKIE_SECURE cannot be disabled in production"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
