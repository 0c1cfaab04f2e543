package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Engine    EngineConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BridgeJWTSecret    string
}

type DatabaseConfig struct {
	Driver     string // "memory" or "postgres"
	Connection string
}

type EngineConfig struct {
	MaintenanceMode       bool
	ViewStatePrefKey      string
	ViewPersistDebounce   time.Duration
	ValidationTTL         time.Duration
	ValidationConcurrency int
	SessionTTL            time.Duration
	MutationSubject       string // NATS subject carrying out-of-band edits
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "4318"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/engine.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "tauri://localhost, http://localhost:1420"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BridgeJWTSecret:    getEnv("BRIDGE_JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "memory"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Engine: EngineConfig{
			MaintenanceMode:       getEnvAsBool("MAINTENANCE_MODE", false),
			ViewStatePrefKey:      getEnv("VIEW_STATE_PREF_KEY", "notes.view_state"),
			ViewPersistDebounce:   time.Duration(getEnvAsInt("VIEW_PERSIST_DEBOUNCE_MS", 300)) * time.Millisecond,
			ValidationTTL:         time.Duration(getEnvAsInt("VALIDATION_TTL_SECONDS", 600)) * time.Second,
			ValidationConcurrency: getEnvAsInt("VALIDATION_CONCURRENCY", 8),
			SessionTTL:            time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
			MutationSubject:       getEnv("MUTATION_SUBJECT", "events.document.mutated"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "notehub-engine"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
