package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cdlite/portal-api/internal/health"
	"github.com/cdlite/portal-api/internal/http/handler"
	"github.com/cdlite/portal-api/internal/http/middleware"
	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/identity"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	AccountHandler *handler.AccountHandler
	CatalogHandler *handler.CatalogHandler
	RequestHandler *handler.RequestHandler
	AdminHandler   *handler.AdminHandler

	SessionVerifier middleware.SessionVerifier

	CORSOrigins        []string
	AuthRateLimitRPM   int
	ForgotRateLimitRPM int
	APIRateLimitRPM    int
	GlobalRateLimiter  func(http.Handler) http.Handler
	AuthRateLimiter    func(http.Handler) http.Handler
	ForgotRateLimiter  func(http.Handler) http.Handler
	Readiness          *health.ProbeRunner
	EnableOTelHTTP     bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}
	r.Use(middleware.Authenticate(dep.SessionVerifier))

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	forgotLimiter := dep.ForgotRateLimiter
	if forgotLimiter == nil {
		forgotLimiter = middleware.NewRateLimiter(dep.ForgotRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/signup", dep.AuthHandler.Signup)
			// GET target of mailed links; responds with a redirect, not JSON.
			r.With(authLimiter).Get("/verify-email", dep.AuthHandler.VerifyEmailRedirect)
			r.With(authLimiter).Post("/verify-email", dep.AuthHandler.VerifyEmail)
			r.With(authLimiter).Post("/resend-verification", dep.AuthHandler.ResendVerification)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(forgotLimiter).Post("/forgot-password", dep.AuthHandler.ForgotPassword)
			r.With(authLimiter).Post("/reset-password", dep.AuthHandler.ResetPassword)
			r.With(middleware.CSRFMiddleware).Post("/logout", dep.AuthHandler.Logout)
		})

		// Public catalog: guests browse and view freely.
		r.Route("/datasets", func(r chi.Router) {
			r.With(middleware.RequireCapability(identity.CapView)).Get("/", dep.CatalogHandler.List)
			r.With(middleware.RequireCapability(identity.CapView)).Get("/{publicID}", dep.CatalogHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.CSRFMiddleware)
				r.With(middleware.RequireCapability(identity.CapAdminister)).Post("/", dep.CatalogHandler.Create)
				r.With(middleware.RequireCapability(identity.CapDownload)).Post("/{publicID}/download", dep.CatalogHandler.Download)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated)
			r.Get("/me", dep.AccountHandler.Me)
			r.With(middleware.CSRFMiddleware).Put("/profile", dep.AccountHandler.UpdateProfile)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Use(middleware.RequireCapability(identity.CapRequest))
			r.Get("/", dep.RequestHandler.ListMine)
			r.With(middleware.CSRFMiddleware).Post("/", dep.RequestHandler.Create)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(identity.CapAdminister))
				r.Get("/accounts", dep.AdminHandler.ListAccounts)
				r.With(middleware.CSRFMiddleware).Put("/accounts/{accountID}/role", dep.AdminHandler.SetRole)
			})
			// The review queue is a moderation surface, not account
			// administration; today both floors are admin.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(identity.CapModerate))
				r.Get("/requests", dep.RequestHandler.ListQueue)
				r.With(middleware.CSRFMiddleware).Post("/requests/{requestID}/decision", dep.RequestHandler.Decide)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
