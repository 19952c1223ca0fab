package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/app"
	"github.com/cdlite/portal-api/internal/config"
	"github.com/cdlite/portal-api/internal/database"
	"github.com/cdlite/portal-api/internal/health"
	"github.com/cdlite/portal-api/internal/http/handler"
	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/router"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
	"github.com/cdlite/portal-api/internal/security"
	"github.com/cdlite/portal-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewAccountRepository,
	repository.NewVerificationTokenRepository,
	repository.NewSessionRepository,
	repository.NewDatasetRepository,
	repository.NewDataRequestRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideSessionService,
	provideNotifier,
	provideAuthService,
	service.NewAccountService,
	service.NewCatalogService,
	service.NewRequestService,
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewAccountHandler,
	handler.NewCatalogHandler,
	handler.NewRequestHandler,
	handler.NewAdminHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideForgotRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db, m.cfg.BootstrapAdminEmail); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSessionSecret)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideSessionService(cfg *config.Config, sessionRepo repository.SessionRepository, jwtMgr *security.JWTManager) *service.SessionService {
	return service.NewSessionService(sessionRepo, jwtMgr, cfg.SessionTokenPepper, cfg.SessionTTL)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) service.LifecycleNotifier {
	if cfg.SMTPEnabled {
		return service.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPSendTimeout, logger)
	}
	return service.NewDevNotifier(logger)
}

func provideAuthService(
	cfg *config.Config,
	accounts repository.AccountRepository,
	tokens repository.VerificationTokenRepository,
	sessions *service.SessionService,
	notifier service.LifecycleNotifier,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(accounts, tokens, sessions, notifier, logger,
		cfg.PortalBaseURL, cfg.VerificationTokenTTL, cfg.AuthRequireVerifiedEmail)
}

func provideAuthHandler(authSvc *service.AuthService, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, cfg.SessionTTL, cfg.PortalBaseURL)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return GlobalRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware())
	}
	return GlobalRateLimiterFunc(middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware())
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return AuthRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware())
	}
	return AuthRateLimiterFunc(middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute).Middleware())
}

func provideForgotRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) ForgotRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":forgot")
		return ForgotRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.ForgotRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"forgot",
		).Middleware())
	}
	return ForgotRateLimiterFunc(middleware.NewRateLimiter(cfg.ForgotRateLimitPerMin, time.Minute).Middleware())
}

// Distinct function types keep wire from conflating the three limiters.
type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler
type ForgotRateLimiterFunc func(http.Handler) http.Handler

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	catalogHandler *handler.CatalogHandler,
	requestHandler *handler.RequestHandler,
	adminHandler *handler.AdminHandler,
	sessionSvc *service.SessionService,
	globalRateLimiter GlobalRateLimiterFunc,
	authRateLimiter AuthRateLimiterFunc,
	forgotRateLimiter ForgotRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:        authHandler,
		AccountHandler:     accountHandler,
		CatalogHandler:     catalogHandler,
		RequestHandler:     requestHandler,
		AdminHandler:       adminHandler,
		SessionVerifier:    sessionSvc,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:   cfg.AuthRateLimitPerMin,
		ForgotRateLimitRPM: cfg.ForgotRateLimitPerMin,
		APIRateLimitRPM:    cfg.APIRateLimitPerMin,
		GlobalRateLimiter:  globalRateLimiter,
		AuthRateLimiter:    authRateLimiter,
		ForgotRateLimiter:  forgotRateLimiter,
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	authSvc *service.AuthService,
	sessionSvc *service.SessionService,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, authSvc, sessionSvc)
}
