package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the durable key-value store the engine persists through.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

type Config struct {
	RemoteBaseURL string
	RemoteToken   string
	RemoteTimeout time.Duration

	SyncInterval    time.Duration
	MinSyncInterval time.Duration
	SettleDelay     time.Duration
	MigrationDelay  time.Duration

	StoreBackend Backend
	SQLitePath   string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresName     string
}

// Load reads configuration from the environment, with a .env file as
// fallback for local development. Every knob has a working default except
// the remote endpoint, which the host app must provide before sync does
// anything useful.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment from .env")
	}

	return Config{
		RemoteBaseURL: os.Getenv("STRIDE_REMOTE_URL"),
		RemoteToken:   os.Getenv("STRIDE_REMOTE_TOKEN"),
		RemoteTimeout: envDuration("STRIDE_REMOTE_TIMEOUT", 15*time.Second),

		SyncInterval:    envDuration("STRIDE_SYNC_INTERVAL", 30*time.Minute),
		MinSyncInterval: envDuration("STRIDE_MIN_SYNC_INTERVAL", 5*time.Minute),
		SettleDelay:     envDuration("STRIDE_SYNC_SETTLE_DELAY", 10*time.Second),
		MigrationDelay:  envDuration("STRIDE_MIGRATION_DELAY", 30*time.Second),

		StoreBackend: Backend(envOr("STRIDE_STORE_BACKEND", string(BackendSQLite))),
		SQLitePath:   envOr("STRIDE_SQLITE_PATH", "stride.db"),

		RedisHost:     envOr("REDIS_HOST", "localhost"),
		RedisPort:     envOr("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		PostgresUser:     os.Getenv("DB_USER"),
		PostgresPassword: os.Getenv("DB_PASSWORD"),
		PostgresHost:     envOr("DB_HOST", "localhost"),
		PostgresPort:     envOr("DB_PORT", "5432"),
		PostgresName:     os.Getenv("DB_NAME"),
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[CONFIG] Invalid %s=%q, using %d", key, val, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("[CONFIG] Invalid %s=%q, using %s", key, val, fallback)
		return fallback
	}
	return d
}
