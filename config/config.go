// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	// マスターキー設定。MasterKeyが空の場合はEncryptedMasterKeyを
	// Cloud KMSで復号して使用する。
	MasterKey          string
	EncryptedMasterKey string
	KMSKeyName         string
	GoogleCloudProject string

	// OpenTelemetry設定
	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	OtelSamplingRate float64

	// APIキーのビジネスルール設定
	MinKeyNameLength        int
	MaxKeyNameLength        int
	MaxKeysPerPlatform      int // 0は無制限
	DefaultExpirationDays   int // 0は無期限
	AllowMultipleActiveKeys bool
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		MasterKey:          os.Getenv("MASTER_KEY"),
		EncryptedMasterKey: os.Getenv("ENCRYPTED_MASTER_KEY"),
		KMSKeyName:         os.Getenv("KMS_KEY_NAME"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),

		OtelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:     getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelServiceName:  getEnv("OTEL_SERVICE_NAME", "api-key-service"),
		OtelSamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),

		MinKeyNameLength:        getEnvInt("MIN_KEY_NAME_LENGTH", 3),
		MaxKeyNameLength:        getEnvInt("MAX_KEY_NAME_LENGTH", 50),
		MaxKeysPerPlatform:      getEnvInt("MAX_KEYS_PER_PLATFORM", 0),
		DefaultExpirationDays:   getEnvInt("DEFAULT_EXPIRATION_DAYS", 0),
		AllowMultipleActiveKeys: getEnvBool("ALLOW_MULTIPLE_ACTIVE_KEYS", true),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
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

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
