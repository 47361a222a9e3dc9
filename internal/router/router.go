package router

import (
	"log/slog"

	"user-account-backend/internal/config"
	"user-account-backend/internal/handler"
	"user-account-backend/internal/middleware"
	"user-account-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer serves
type Dependencies struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Authenticator middleware.Authenticator
	DB            handler.Pinger
	Cache         handler.Pinger
}

// New builds the gin engine with every route mounted
func New(cfg *config.Config, log *slog.Logger, deps Dependencies) *gin.Engine {
	handler.RegisterValidation()

	r := gin.New()
	r.Use(middleware.Sentry())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users, deps.Auth)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Cache)
	requireAuth := middleware.AuthMiddleware(deps.Authenticator)

	r.GET("/", handler.Root)
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh-token", authHandler.RefreshToken)
			auth.POST("/logout", requireAuth, authHandler.Logout)
		}

		// User routes
		user := api.Group("/user")
		{
			user.GET("/details", requireAuth, userHandler.Details)
			user.GET("/details/:id", userHandler.DetailsByID)
			user.PATCH("/details/:id", requireAuth, userHandler.UpdateByID)
			user.DELETE("/account", requireAuth, userHandler.DeleteAccount)
		}
	}

	return r
}
