package constants

import "time"

const (
	NicknameMinLength  = 2
	NicknameMaxLength  = 20
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	EmailMaxLength     = 254
	JWTSecretMinLength = 32

	MaxImageSizeBytes     = 10 * 1024 * 1024
	DefaultMaxRequestSize = 1 << 20
	MaxUploadRequestSize  = MaxImageSizeBytes + DefaultMaxRequestSize
	DefaultProfileImageID = 1
	BcryptCost            = 12

	DBPoolMaxOpenConns    = 50
	DBPoolMinOpenConns    = 10
	DBPoolConnMaxLifetime = 5 * time.Minute
	DBPoolConnMaxIdleTime = 10 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 15 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	RedisDialTimeout    = 5 * time.Second
	RedisReadTimeout    = 3 * time.Second
	RedisWriteTimeout   = 3 * time.Second
	RedisTxMaxAttempts  = 16
	RefreshStoreStripes = 256

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 30 * time.Second
	DefaultAccessTokenTTL     = 30 * time.Minute
	DefaultRefreshTokenTTL    = 14 * 24 * time.Hour
	DefaultTokenIssuer        = "filmdoms"

	RefreshTokenCookieName = "refreshToken"

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
