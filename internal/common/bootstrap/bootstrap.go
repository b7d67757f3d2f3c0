package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	accounthttp "github.com/filmdoms/community/internal/account/http"
	accountrepo "github.com/filmdoms/community/internal/account/repository"
	accountservice "github.com/filmdoms/community/internal/account/service"
	authhttp "github.com/filmdoms/community/internal/auth/http"
	authservice "github.com/filmdoms/community/internal/auth/service"
	"github.com/filmdoms/community/internal/auth/store"
	"github.com/filmdoms/community/internal/auth/token"
	"github.com/filmdoms/community/internal/common/clock"
	"github.com/filmdoms/community/internal/common/config"
	"github.com/filmdoms/community/internal/common/constants"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	"github.com/filmdoms/community/internal/common/db"
	commonhttp "github.com/filmdoms/community/internal/common/http"
	"github.com/filmdoms/community/internal/common/jwtverify"
	"github.com/filmdoms/community/internal/common/logger"
	"github.com/filmdoms/community/internal/common/resilience"
	imagehttp "github.com/filmdoms/community/internal/image/http"
	imagerepo "github.com/filmdoms/community/internal/image/repository"
	imageservice "github.com/filmdoms/community/internal/image/service"
	"github.com/filmdoms/community/internal/image/storage"
	"github.com/filmdoms/community/internal/migrations"
)

// AuthApp holds every long-lived dependency of the community backend.
type AuthApp struct {
	Log    *logger.Logger
	Config config.AuthConfig
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	Store    store.RefreshTokenStore
	Codec    *token.Codec
	Auth     *authservice.AuthService
	Accounts *accountservice.AccountService
	Images   *imageservice.ImageService

	closers []func()
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &AuthApp{Log: log, Config: cfg}
	if err := app.initialize(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *AuthApp) initialize(ctx context.Context) error {
	cfg := a.Config

	if err := migrations.Up(ctx, cfg.DatabaseURL, a.Log); err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, a.Log, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)

	refreshStore, err := a.newRefreshStore(ctx)
	if err != nil {
		return err
	}
	a.Store = refreshStore

	codec, err := token.NewCodec(token.Config{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Issuer:     cfg.TokenIssuer,
	}, clock.NewRealClock(), commoncrypto.NewUUIDGenerator())
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	a.Codec = codec

	s3Cfg := storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	}
	s3Client, err := storage.NewS3Client(ctx, s3Cfg)
	if err != nil {
		return err
	}

	dbBreaker := a.newBreaker("postgres")
	hasher := commoncrypto.NewBcryptHasher(constants.BcryptCost)

	a.Images = imageservice.NewImageService(imageservice.ImageServiceDeps{
		Repo:    imagerepo.NewPgRepository(pool),
		Storage: storage.NewS3Storage(s3Client, s3Cfg),
		Breaker: dbBreaker,
		Log:     a.Log,
	})

	a.Accounts = accountservice.NewAccountService(accountservice.AccountServiceDeps{
		Repo:     accountrepo.NewPgRepository(pool),
		Images:   a.Images,
		Sessions: refreshStore,
		Hasher:   hasher,
		Breaker:  dbBreaker,
		Log:      a.Log,
	})

	a.Auth = authservice.NewAuthService(authservice.AuthServiceDeps{
		Accounts: a.Accounts,
		Store:    refreshStore,
		Codec:    codec,
		Hasher:   hasher,
		Breaker:  a.newBreaker("refresh_store"),
		Log:      a.Log,
	})

	return nil
}

func (a *AuthApp) newRefreshStore(ctx context.Context) (store.RefreshTokenStore, error) {
	cfg := a.Config
	switch cfg.RefreshStore {
	case config.RefreshStoreMemory:
		a.Log.Warn("refresh tokens are kept in memory and will not survive a restart")
		return store.NewMemoryStore(), nil
	case config.RefreshStorePostgres:
		return store.NewPgStore(a.Pool), nil
	default:
		client, err := newRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		return store.NewRedisStore(client, store.RedisStoreConfig{TTL: cfg.RefreshTTL}), nil
	}
}

func newRedisClient(ctx context.Context, cfg config.AuthConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  constants.RedisDialTimeout,
		ReadTimeout:  constants.RedisReadTimeout,
		WriteTimeout: constants.RedisWriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

func (a *AuthApp) newBreaker(name string) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(a.Config.CircuitBreakerThreshold),
		Timeout:    a.Config.CircuitBreakerTimeout,
		ResetAfter: a.Config.CircuitBreakerReset,
		Name:       name,
		Logger:     a.Log,
	})
}

// Handler mounts every route behind the shared middleware chain.
func (a *AuthApp) Handler() http.Handler {
	requireAuth := jwtverify.Middleware(a.Codec, a.Log)

	authHandler := authhttp.NewHandler(a.Auth, authhttp.HandlerConfig{
		RequestTimeout: a.Config.RequestTimeout,
		RefreshTTL:     a.Config.RefreshTTL,
	}, a.Log)
	accountHandler := accounthttp.NewHandler(a.Accounts, a.Config.RequestTimeout, a.Log)
	imageHandler := imagehttp.NewHandler(a.Images, a.Config.RequestTimeout, a.Log)
	a.closers = append(a.closers, authHandler.Close, accountHandler.Close, imageHandler.Close)

	mux := http.NewServeMux()
	authHandler.Register(mux)
	accountHandler.Register(mux, requireAuth)
	imageHandler.Register(mux, requireAuth)
	mux.HandleFunc("/health", commonhttp.HealthHandler(a.Log, a.healthChecks()))
	mux.Handle("/metrics", promhttp.Handler())

	return commonhttp.BuildBaseHandler("auth", a.Log, constants.MaxUploadRequestSize, mux)
}

func (a *AuthApp) healthChecks() map[string]commonhttp.HealthCheck {
	checks := map[string]commonhttp.HealthCheck{}
	if a.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error {
			conn, err := a.Pool.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Release()
			return conn.Conn().Ping(ctx)
		}
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases resources in reverse order of acquisition.
func (a *AuthApp) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
