package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Tracking TrackingConfig
	Billing  BillingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// IdempotencyTTL bounds how long a replayed Idempotency-Key returns
	// the cached response instead of re-running the request.
	IdempotencyTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// TrackingConfig holds live-tracking tuning.
type TrackingConfig struct {
	// ArrivalThresholdM is the distance to the site, in meters, below
	// which an EN_ROUTE trip is considered arrived.
	ArrivalThresholdM float64

	// AssumedSpeedKmh feeds the straight-line ETA estimate.
	AssumedSpeedKmh float64

	// MinSampleInterval and MinSampleDistanceM throttle live GPS noise.
	MinSampleInterval  time.Duration
	MinSampleDistanceM float64

	// SimTick and SimStepFraction shape simulated feeds.
	SimTick         time.Duration
	SimStepFraction float64
	SimJitterDeg    float64
}

// BillingConfig holds the service tariff.
type BillingConfig struct {
	RatePerMinute float64
	TaxPercent    float64
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdempotencyTTL: getDurationEnv("SERVER_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "drainflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "drainflow-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Tracking: TrackingConfig{
			ArrivalThresholdM:  getFloatEnv("TRACKING_ARRIVAL_THRESHOLD_M", 50),
			AssumedSpeedKmh:    getFloatEnv("TRACKING_ASSUMED_SPEED_KMH", 30),
			MinSampleInterval:  getDurationEnv("TRACKING_MIN_SAMPLE_INTERVAL", time.Second),
			MinSampleDistanceM: getFloatEnv("TRACKING_MIN_SAMPLE_DISTANCE_M", 5),
			SimTick:            getDurationEnv("TRACKING_SIM_TICK", 2*time.Second),
			SimStepFraction:    getFloatEnv("TRACKING_SIM_STEP_FRACTION", 0.25),
			SimJitterDeg:       getFloatEnv("TRACKING_SIM_JITTER_DEG", 0),
		},
		Billing: BillingConfig{
			RatePerMinute: getFloatEnv("BILLING_RATE_PER_MINUTE", 25),
			TaxPercent:    getFloatEnv("BILLING_TAX_PERCENT", 18),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
