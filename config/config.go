package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Redis  RedisConfig
	CORS   CORSConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port    int
	GinMode string
}

// ModelConfig describes the model artifacts and the constants used to
// turn a request into a feature row.
type ModelConfig struct {
	Path           string
	Format         string
	InfoPath       string
	CurrentYear    int
	AutomaticLabel string
	DefaultColor   string
	CurrencyLabel  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type CORSConfig struct {
	AllowedOrigins string
}

type LogConfig struct {
	Level      string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	serverPort, err := getIntEnv("PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	currentYear, err := getIntEnv("CURRENT_YEAR", 1404)
	if err != nil {
		return nil, fmt.Errorf("invalid CURRENT_YEAR: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getIntEnv("CACHE_TTL_SEC", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SEC: %w", err)
	}

	logMaxSize, err := getIntEnv("LOG_MAX_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_MAX_SIZE: %w", err)
	}

	logMaxBackups, err := getIntEnv("LOG_MAX_BACKUPS", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_MAX_BACKUPS: %w", err)
	}

	logMaxAge, err := getIntEnv("LOG_MAX_AGE", 28)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_MAX_AGE: %w", err)
	}

	logCompress, err := getBoolEnv("LOG_COMPRESS", true)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_COMPRESS: %w", err)
	}

	format := getEnv("MODEL_FORMAT", "lightgbm")
	if format != "lightgbm" && format != "xgboost" {
		return nil, fmt.Errorf("invalid MODEL_FORMAT %q: want lightgbm or xgboost", format)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    serverPort,
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Model: ModelConfig{
			Path:           getEnv("MODEL_PATH", "car_price_model.txt"),
			Format:         format,
			InfoPath:       getEnv("MODEL_INFO_PATH", "model_info.json"),
			CurrentYear:    currentYear,
			AutomaticLabel: getEnv("AUTOMATIC_LABEL", "اتوماتیک"),
			DefaultColor:   getEnv("DEFAULT_COLOR", "سفید"),
			CurrencyLabel:  getEnv("CURRENCY_LABEL", "تومان"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTLSec:   cacheTTL,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Filename:   getEnv("LOG_FILENAME", "logs/app.log"),
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   logCompress,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
