package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/financial-transactions-api/internal/api/handler"
	"github.com/financial-transactions-api/internal/api/middleware"
	"github.com/financial-transactions-api/internal/api/response"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/gin-gonic/gin"
)

// publicPaths are reachable without a bearer token
var publicPaths = []string{
	"/api/v1/auth/login",
	"/v3/api-docs",
	"/swagger-ui",
	"/swagger-ui.html",
	"/swagger-resources",
	"/webjars",
	"/health",
	"/metrics",
}

// routerDeps groups what setupRouter wires onto the engine
type routerDeps struct {
	authHandler        *handler.AuthHandler
	transactionHandler *handler.TransactionHandler
	tokens             middleware.TokenVerifier
	principals         middleware.PrincipalResolver
	observer           middleware.RequestObserver
	metricsHandler     http.Handler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, deps routerDeps) {
	r.HandleMethodNotAllowed = true

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.observer))
	r.Use(middleware.Authentication(logger, deps.tokens, deps.principals, publicPaths))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", deps.authHandler.Login)

		transactions := v1.Group("/transactions", middleware.RequireRole(logger, principal.RoleUser))
		{
			transactions.POST("", deps.transactionHandler.Create)
			transactions.GET("", deps.transactionHandler.List)
			transactions.GET("/:id", deps.transactionHandler.GetByID)
			transactions.PUT("/:id", deps.transactionHandler.Update)
			transactions.DELETE("/:id", deps.transactionHandler.Delete)
		}
	}

	r.GET("/v3/api-docs", handler.APIDocs)
	r.GET("/metrics", gin.WrapH(deps.metricsHandler))

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.NoRoute(response.EndpointNotFound)
	r.NoMethod(response.MethodNotAllowed)
}
