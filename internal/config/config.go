package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Store    StoreConfig
	Cache    CacheConfig
	Accounts AccountsConfig
	Cart     CartConfig
	Feed     FeedConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"3000s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"ninelives-store"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	Path string `envconfig:"STORE_DB_PATH" default:"./data/store.db"`
}

// CacheConfig holds session/local-storage cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AccountsConfig holds MySQL connection settings for credentialed identities.
type AccountsConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"ninelives"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// CartConfig selects the cart persistence variant.
type CartConfig struct {
	// Variant is "remote" (per-identity documents, transactional merge) or
	// "local" (session-keyed list in client-local storage, duplicates allowed).
	Variant string `envconfig:"CART_VARIANT" default:"remote"`
}

// FeedConfig holds community feed settings.
type FeedConfig struct {
	Limit     int      `envconfig:"FEED_LIMIT" default:"50"`
	MaxLength int      `envconfig:"FEED_MAX_LENGTH" default:"280"`
	Blocklist []string `envconfig:"FEED_BLOCKLIST" default:"spam,scam,shill"`
	Mask      string   `envconfig:"FEED_MASK" default:"****"`
}

// AdminConfig holds the staged admin gate settings.
type AdminConfig struct {
	// PIN is the shared gate secret. A static client-visible PIN in the
	// original; kept server-checked here, still not a cryptographic control.
	PIN string `envconfig:"ADMIN_PIN" default:"9999"`
	// EmailPattern marks returning identities as administrative. Matched as a
	// suffix, e.g. "@ninelives.store".
	EmailPattern string `envconfig:"ADMIN_EMAIL_PATTERN" default:"@ninelives.store"`
	// TriggerCount activations within TriggerWindow reveal the PIN entry.
	TriggerCount  int           `envconfig:"ADMIN_TRIGGER_COUNT" default:"5"`
	TriggerWindow time.Duration `envconfig:"ADMIN_TRIGGER_WINDOW" default:"2s"`
	// BootstrapEmail/BootstrapPassword provision a first privileged account
	// at startup when the accounts database has none.
	BootstrapEmail    string `envconfig:"ADMIN_BOOTSTRAP_EMAIL" default:""`
	BootstrapPassword string `envconfig:"ADMIN_BOOTSTRAP_PASSWORD" default:""`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name for the accounts database.
func (a *AccountsConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		a.User, a.Password, a.Host, a.Port, a.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
