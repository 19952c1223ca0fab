package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cdlite/portal-api/internal/config"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient

	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	authSvc *service.AuthService,
	sessionSvc *service.SessionService,
) *App {
	return &App{
		Config:         cfg,
		Logger:         logger,
		Server:         server,
		Observability:  runtime,
		DB:             db,
		Redis:          redisClient,
		AuthService:    authSvc,
		SessionService: sessionSvc,
	}
}

// RunJanitor deletes expired lifecycle tokens and session rows on a fixed
// interval until ctx is cancelled. Expiry is already enforced at use; this
// keeps the tables from growing without bound.
func (a *App) RunJanitor(ctx context.Context) error {
	ticker := time.NewTicker(a.Config.TokenCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed, err := a.AuthService.CleanupExpiredTokens(ctx); err != nil {
				a.Logger.ErrorContext(ctx, "token cleanup failed", "error", err)
			} else if removed > 0 {
				a.Logger.InfoContext(ctx, "expired tokens removed", "count", removed)
			}
			if removed, err := a.SessionService.CleanupExpired(ctx); err != nil {
				a.Logger.ErrorContext(ctx, "session cleanup failed", "error", err)
			} else if removed > 0 {
				a.Logger.InfoContext(ctx, "expired sessions removed", "count", removed)
			}
		}
	}
}

// Shutdown drains HTTP, flushes observability, and closes clients, bounded
// by the configured shutdown timeouts.
func (a *App) Shutdown() {
	totalTimeout := a.Config.ShutdownTimeout
	if totalTimeout <= 0 {
		totalTimeout = 20 * time.Second
	}
	totalCtx, totalCancel := context.WithTimeout(context.Background(), totalTimeout)
	defer totalCancel()

	httpTimeout := a.Config.ShutdownHTTPDrainTimeout
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	httpCtx, httpCancel := context.WithTimeout(totalCtx, httpTimeout)
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
	}
	httpCancel()

	if a.Observability != nil {
		if err := a.Observability.Shutdown(totalCtx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("failed to close database connection", "error", err)
			}
		}
	}
}
