package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Mirror    MirrorConfig
	Inventory InventoryConfig
	Sales     SalesConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type StoreConfig struct {
	Backend         string // memory, file, redis, sqlite, postgres, mysql
	FileDir         string
	SQLDSN          string
	SerializeWrites bool
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port of the redis server
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type MirrorConfig struct {
	URI      string
	Database string
}

// Enabled reports whether a remote mirror was configured
func (c MirrorConfig) Enabled() bool {
	return c.URI != ""
}

type InventoryConfig struct {
	LowStockThreshold float64 // fractional buffer above minQuantity
}

type SalesConfig struct {
	WeeklyWindowDays     int
	IdempotentProjection bool
}

// WeeklyWindow returns the trailing report window
func (c SalesConfig) WeeklyWindow() time.Duration {
	return time.Duration(c.WeeklyWindowDays) * 24 * time.Hour
}

type RateLimitConfig struct {
	Enabled       bool
	Requests      int
	WindowSeconds int
}

type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("STORE_BACKEND", "file")
	viper.SetDefault("STORE_FILE_DIR", "./data")
	viper.SetDefault("STORE_SQL_DSN", "file:retail.db?_pragma=busy_timeout(5000)")
	viper.SetDefault("STORE_SERIALIZE_WRITES", true)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "retail:")
	viper.SetDefault("MIRROR_DATABASE", "retail")
	viper.SetDefault("INVENTORY_LOW_STOCK_THRESHOLD", 0.0)
	viper.SetDefault("SALES_WEEKLY_WINDOW_DAYS", 7)
	viper.SetDefault("SALES_IDEMPOTENT_PROJECTION", false)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("OTEL_SERVICE_NAME", "retail-ledger")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(viper.GetString("STORE_BACKEND")),
			FileDir:         viper.GetString("STORE_FILE_DIR"),
			SQLDSN:          viper.GetString("STORE_SQL_DSN"),
			SerializeWrites: viper.GetBool("STORE_SERIALIZE_WRITES"),
		},
		Redis: RedisConfig{
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetString("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("REDIS_KEY_PREFIX"),
		},
		Mirror: MirrorConfig{
			URI:      viper.GetString("MIRROR_URI"),
			Database: viper.GetString("MIRROR_DATABASE"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: viper.GetFloat64("INVENTORY_LOW_STOCK_THRESHOLD"),
		},
		Sales: SalesConfig{
			WeeklyWindowDays:     viper.GetInt("SALES_WEEKLY_WINDOW_DAYS"),
			IdempotentProjection: viper.GetBool("SALES_IDEMPOTENT_PROJECTION"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			Requests:      viper.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: viper.GetString("OTEL_SERVICE_NAME"),
		},
	}
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
