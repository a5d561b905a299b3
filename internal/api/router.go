package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/pressmark/blog-platform/docs"
	"github.com/pressmark/blog-platform/internal/api/handler"
	"github.com/pressmark/blog-platform/internal/api/middleware"
	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
	"github.com/pressmark/blog-platform/internal/core/service"
	"github.com/pressmark/blog-platform/internal/infrastructure/config"
	mongodb "github.com/pressmark/blog-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/pressmark/blog-platform/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, mailer ports.Mailer, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("blogauth"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	reuse := redisdb.NewReuseDetector(rdb)
	authService := service.NewAuthService(userRepo, tokens, mailer, reuse, log)

	secureCookies := !cfg.IsDevelopment()
	authHandler := handler.NewAuthHandler(authService, secureCookies)
	adminHandler := handler.NewAdminHandler(userRepo)
	authGate := middleware.Auth(authService, secureCookies)

	// --- Public auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.GET("/auth/verify-email/:token", authHandler.VerifyEmail)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh-token", authHandler.Refresh)
	e.POST("/auth/forgotpassword", authHandler.ForgotPassword)
	e.PUT("/auth/resetpassword/:token", authHandler.ResetPassword)

	// --- Authenticated auth routes ---
	e.POST("/auth/logout", authHandler.Logout, authGate)
	e.GET("/auth/me", authHandler.Me, authGate)
	e.PUT("/auth/updatepassword", authHandler.UpdatePassword, authGate)

	// --- Admin surface ---
	admin := e.Group("/admin", authGate, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/stats", adminHandler.Stats)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	return e
}
