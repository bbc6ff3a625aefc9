package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	OwnerUsername  string
	ImportLimit    int
	MaxConcurrency int
	MaxRetries     int
	RunTimeoutSec  int
	SkipDuplicates bool

	AdminAddr  string
	ReportPath string
	Debug      bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "carmarket"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "carmarket123"),
		PostgresDB:       getEnv("POSTGRES_DB", "carmarket_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		OwnerUsername:  getEnv("IMPORT_OWNER", "admin"),
		ImportLimit:    getEnvInt("IMPORT_LIMIT", 100),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		MaxRetries:     getEnvInt("MAX_RETRIES", 1),
		RunTimeoutSec:  getEnvInt("RUN_TIMEOUT_SEC", 0),
		SkipDuplicates: getEnvBool("SKIP_DUPLICATES", false),

		AdminAddr:  getEnv("ADMIN_ADDR", ":8085"),
		ReportPath: getEnv("REPORT_PATH", "./output/import_report.csv"),
		Debug:      getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
