package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Optimiser
	GraphFile     string        `mapstructure:"GRAPH_FILE"`
	AlphaMin      float64       `mapstructure:"ALPHA_MIN"`
	AlphaMax      float64       `mapstructure:"ALPHA_MAX"`
	MaxExpansions int           `mapstructure:"MAX_EXPANSIONS"`
	UseHeuristic  bool          `mapstructure:"USE_HEURISTIC"`
	CacheTTL      time.Duration `mapstructure:"ROUTE_CACHE_TTL"`
	CacheSize     int           `mapstructure:"ROUTE_CACHE_SIZE"`

	LiveTraffic        bool    `mapstructure:"LIVE_TRAFFIC"`
	TrafficSensitivity float64 `mapstructure:"TRAFFIC_SENSITIVITY"`

	WarmupSchedule string `mapstructure:"WARMUP_SCHEDULE"`

	AuditQueueSize int           `mapstructure:"AUDIT_QUEUE_SIZE"`
	AuditTimeout   time.Duration `mapstructure:"AUDIT_TIMEOUT"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CLIENT_ORIGIN", "*")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("GRAPH_FILE", "")
	v.SetDefault("ALPHA_MIN", 0.1)
	v.SetDefault("ALPHA_MAX", 2.0)
	v.SetDefault("MAX_EXPANSIONS", 10000)
	v.SetDefault("USE_HEURISTIC", false)
	v.SetDefault("ROUTE_CACHE_TTL", "300s")
	v.SetDefault("ROUTE_CACHE_SIZE", 1024)

	v.SetDefault("LIVE_TRAFFIC", false)
	v.SetDefault("TRAFFIC_SENSITIVITY", 0.5)
	v.SetDefault("WARMUP_SCHEDULE", "@every 5m")
	v.SetDefault("AUDIT_QUEUE_SIZE", 256)
	v.SetDefault("AUDIT_TIMEOUT", "3s")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "route-optimizations")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName(".env") // Name of config file (without extension)
	v.SetConfigType("env")

	v.AutomaticEnv() // Read in environment variables that match

	err := v.ReadInConfig() // Find and read the config file
	if err != nil {
		// Handle errors reading the config file, but allow it if it's just "not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the optimiser cannot run with.
func (c *Config) Validate() error {
	if c.AlphaMin <= 0 || c.AlphaMax < c.AlphaMin {
		return fmt.Errorf("config: invalid alpha bounds [%v, %v]", c.AlphaMin, c.AlphaMax)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("config: ROUTE_CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: ROUTE_CACHE_TTL must not be negative")
	}
	if c.AuditQueueSize < 0 {
		return fmt.Errorf("config: AUDIT_QUEUE_SIZE must not be negative")
	}
	if c.TrafficSensitivity < 0 {
		return fmt.Errorf("config: TRAFFIC_SENSITIVITY must not be negative")
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
