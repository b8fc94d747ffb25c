package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything read from the environment at startup. Values are
// resolved once and treated as immutable afterward.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	// Protocol tuning, applied to the configurable gprmc profile.
	DefaultAccount  string
	MinSpeedKPH     float64
	DateFormat      string
	ResponseOK      string
	ResponseError   string
	ResponseNotAuth string

	EstimateOdometer bool
	SimulateGeozones bool

	// Persistence failures are normally still acknowledged OK so devices
	// do not retransmit forever; disable to surface the error token.
	AckOnPersistError bool

	// Raw-message spool; blank dir disables it.
	SpoolDir           string
	SpoolBatchSize     int
	SpoolFlushInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", false),

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "fleettrack"),
		RedisURL:      getEnv("REDIS_URL", ""),

		DefaultAccount:  getEnv("GPRMC_DEFAULT_ACCOUNT", ""),
		MinSpeedKPH:     getFloat("GPRMC_MIN_SPEED_KPH", 4.0),
		DateFormat:      getEnv("GPRMC_DATE_FORMAT", "YMD"),
		ResponseOK:      getEnv("GPRMC_RESPONSE_OK", "OK"),
		ResponseError:   getEnv("GPRMC_RESPONSE_ERROR", "ERROR"),
		ResponseNotAuth: getEnv("GPRMC_RESPONSE_NOT_AUTH", "ERROR"),

		EstimateOdometer:  getBool("ESTIMATE_ODOMETER", true),
		SimulateGeozones:  getBool("SIMULATE_GEOZONES", true),
		AckOnPersistError: getBool("ACK_ON_PERSIST_ERROR", true),

		SpoolDir:           getEnv("RAWLOG_DIR", ""),
		SpoolBatchSize:     getInt("RAWLOG_BATCH_SIZE", 200),
		SpoolFlushInterval: getDuration("RAWLOG_FLUSH_INTERVAL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
