package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the obesitrack service.
type Config struct {
	ServiceName string
	Environment string
	HTTPPort    string
	GRPCPort    string
	Log         LogConfig
	Database    DatabaseConfig
	Kafka       KafkaConfig
	Model       ModelConfig
	Outbox      OutboxConfig
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds PostgreSQL connection settings. URL, when set,
// overrides the discrete fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds broker settings for the outbox relay.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ModelConfig holds classifier artifact settings. Mode "demo" swaps in the
// BMI-band classifier and must be requested explicitly.
type ModelConfig struct {
	Mode               string
	Dir                string
	PredictTimeout     time.Duration
	FallbackConfidence float64
}

// OutboxConfig holds relay polling settings.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "obesitrack"),
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCPort:    getEnv("GRPC_PORT", "9090"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "obesitrack"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "obesitrack"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "prediction-events"),
		},
		Model: ModelConfig{
			Mode:               getEnv("MODEL_MODE", "artifact"),
			Dir:                getEnv("MODEL_DIR", "model"),
			PredictTimeout:     getEnvDuration("MODEL_PREDICT_TIMEOUT", 5*time.Second),
			FallbackConfidence: getEnvFloat("MODEL_FALLBACK_CONFIDENCE", 0.5),
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
	}
}

// Validate checks configuration values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.Model.Mode {
	case "artifact", "demo":
	default:
		return fmt.Errorf("MODEL_MODE must be artifact or demo, got %q", c.Model.Mode)
	}
	if c.Model.FallbackConfidence < 0 || c.Model.FallbackConfidence > 1 {
		return fmt.Errorf("MODEL_FALLBACK_CONFIDENCE must be between 0 and 1, got %v", c.Model.FallbackConfidence)
	}
	if c.Model.PredictTimeout <= 0 {
		return fmt.Errorf("MODEL_PREDICT_TIMEOUT must be positive, got %v", c.Model.PredictTimeout)
	}
	return nil
}

// HTTPAddr returns the full HTTP listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// GRPCAddr returns the full gRPC listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
