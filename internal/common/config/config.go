package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/filmdoms/community/internal/common/constants"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

const (
	RefreshStoreRedis    = "redis"
	RefreshStorePostgres = "postgres"
	RefreshStoreMemory   = "memory"
)

type AuthConfig struct {
	HTTPPort       string
	DatabaseURL    string
	JWTSecret      string
	TokenIssuer    string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	RequestTimeout time.Duration

	RefreshStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	// S3PublicURL prefixes object keys in stored image URLs. Empty means
	// the virtual-hosted bucket URL.
	S3PublicURL string

	LogDir   string
	LogLevel string

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

// LoadDotEnv loads variables from the given files into the process
// environment. Variables that are already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAuthConfig() (AuthConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	refreshStore := strings.ToLower(getEnv("REFRESH_STORE", RefreshStoreRedis))
	switch refreshStore {
	case RefreshStoreRedis, RefreshStorePostgres, RefreshStoreMemory:
	default:
		return AuthConfig{}, commonerrors.ErrInvalidConfig.WithCause(
			fmt.Errorf("REFRESH_STORE must be one of redis, postgres, memory: got %q", refreshStore))
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	accessTTL := getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL)
	refreshTTL := getDurationEnv("REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL)
	if accessTTL <= 0 || refreshTTL <= 0 {
		return AuthConfig{}, commonerrors.ErrInvalidConfig.WithCause(
			fmt.Errorf("token TTLs must be positive: access=%s refresh=%s", accessTTL, refreshTTL))
	}

	return AuthConfig{
		HTTPPort:       getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:    databaseURL,
		JWTSecret:      jwtSecret,
		TokenIssuer:    getEnv("TOKEN_ISSUER", constants.DefaultTokenIssuer),
		AccessTTL:      accessTTL,
		RefreshTTL:     refreshTTL,
		RequestTimeout: getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),

		RefreshStore:  refreshStore,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "ap-northeast-2"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		LogDir:   getEnv("LOG_DIR", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CircuitBreakerThreshold: getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold),
		CircuitBreakerTimeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s is not set", key))
	}
	return v, nil
}

// getDurationEnv accepts Go durations and a trailing "d" for whole days.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return fallback
		}
		return time.Duration(days) * 24 * time.Hour
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
