package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	TargetFile     = "file"
	TargetPostgres = "postgres"
	TargetRedis    = "redis"
)

type Config struct {
	Server        ServerConfig
	Scraper       ScraperConfig
	Browser       BrowserConfig
	Output        OutputConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Logging       LoggingConfig
	Metrics       MetricsConfig
	SelectorsFile string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	URL          string
	FetchMode    string
	Timeout      time.Duration
	UserAgent    string
	RateInterval time.Duration
	RateBurst    int
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	AcceptLanguage string
	Locale         string
}

type OutputConfig struct {
	Target      string
	File        string
	Stream      string
	StreamGroup string
	ClaimIdle   time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Addr string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is applied first without overriding set variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Scraper: ScraperConfig{
			URL:          getEnvOrDefault("SCRAPER_URL", DefaultProductURL),
			FetchMode:    getEnvOrDefault("SCRAPER_FETCH_MODE", FetchModeHTTP),
			Timeout:      getDurationOrDefault("SCRAPER_TIMEOUT", 30*time.Second),
			UserAgent:    getEnvOrDefault("SCRAPER_USER_AGENT", defaultUserAgent),
			RateInterval: getDurationOrDefault("SCRAPER_RATE_INTERVAL", 2*time.Second),
			RateBurst:    getIntOrDefault("SCRAPER_RATE_BURST", 1),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en;q=0.8"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "pt-BR"),
		},
		Output: OutputConfig{
			Target:      getEnvOrDefault("OUTPUT_TARGET", TargetFile),
			File:        getEnvOrDefault("OUTPUT_FILE", "produto.json"),
			Stream:      getEnvOrDefault("OUTPUT_STREAM", "stream:products"),
			StreamGroup: getEnvOrDefault("OUTPUT_STREAM_GROUP", "snapshot-consumer-group"),
			ClaimIdle:   getDurationOrDefault("OUTPUT_STREAM_CLAIM_IDLE", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "product_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
		SelectorsFile: getEnvOrDefault("SELECTORS_FILE", ""),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Scraper.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("SCRAPER_FETCH_MODE must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, c.Scraper.FetchMode)
	}

	switch c.Output.Target {
	case TargetFile, TargetPostgres, TargetRedis:
	default:
		return fmt.Errorf("OUTPUT_TARGET must be one of file, postgres, redis, got %q", c.Output.Target)
	}

	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}

	if c.Scraper.RateBurst < 1 {
		return fmt.Errorf("SCRAPER_RATE_BURST must be at least 1")
	}

	if c.Output.Target == TargetFile && c.Output.File == "" {
		return fmt.Errorf("OUTPUT_FILE is required for file output")
	}

	return nil
}

// DSN returns the postgres connection string for the database section.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
