package router

import (
	"net/http"
	"strconv"
	"strings"

	"pharma-backend/internal/app"
	"pharma-backend/internal/config"
	"pharma-backend/internal/handlers"
	"pharma-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware applies the configured origin allowlist. An empty or
// wildcard list allows every origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigins := []string{"*"}
		allowCredentials := true
		maxAge := 3600
		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, o := range allowedOrigins {
				if strings.TrimSpace(o) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				logrus.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
				}).Warn("🚫 CORS: origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept, X-Request-ID")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter builds the gin engine over an initialized service container.
func SetupRouter(container *app.ServiceContainer) *gin.Engine {
	r := gin.Default()
	logger := container.Logger

	r.Use(corsMiddleware())
	r.Use(middleware.RequestID())

	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	adminIPs := middleware.NewAdminIPAllowlist(logger, allowedIPs)
	auth := middleware.NewAuthMiddleware(logger)

	authHandler := handlers.NewAuthHandler(logger)
	batchHandler := handlers.NewBatchHandler(container.Engine, logger)
	queryHandler := handlers.NewQueryHandler(container.Engine, logger)
	roleHandler := handlers.NewRoleHandler(container.Roles, logger)
	wsHandler := handlers.NewWebSocketHandler(container.Hub, logger)

	// ============ Probes & metrics ============
	r.GET("/ping", handlers.PingHandler)
	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheckHandler)

		// ============ Authentication ============
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/nonce", authHandler.GenerateNonceHandler)
			authGroup.POST("", authHandler.AuthenticateHandler)
		}

		// ============ Batch lifecycle (authenticated) ============
		batches := api.Group("/batches", auth.RequireAuth())
		{
			batches.POST("/raw-materials", batchHandler.CreateRawMaterialHandler)
			batches.POST("/medicines", batchHandler.CreateMedicineHandler)
			batches.POST("/:id/transfer", batchHandler.TransferHandler)
			batches.POST("/:id/receive", batchHandler.ReceiveHandler)
			batches.POST("/:id/finalize", batchHandler.FinalizeHandler)
			batches.POST("/:id/destroy", batchHandler.DestroyHandler)
		}

		// ============ Batch queries (public) ============
		api.GET("/batches/raw-materials", queryHandler.ListRawMaterialsHandler)
		api.GET("/batches/medicines", queryHandler.ListMedicinesHandler)
		api.GET("/batches/:id", queryHandler.GetBatchDetailsHandler)
		api.GET("/batches/:id/type", queryHandler.GetBatchTypeHandler)
		api.GET("/batches/:id/history", queryHandler.GetHistoryHandler)
		api.GET("/batches/:id/verify", queryHandler.VerifyChainHandler)

		// ============ Role registry ============
		api.GET("/roles/:role/accounts/:account", roleHandler.HasRoleHandler)
		api.GET("/roles/:role/admin", roleHandler.GetRoleAdminHandler)

		rolesAdmin := api.Group("/roles", adminIPs.Restrict(), auth.RequireAuth())
		{
			rolesAdmin.POST("/grant", roleHandler.GrantRoleHandler)
			rolesAdmin.POST("/revoke", roleHandler.RevokeRoleHandler)
			rolesAdmin.POST("/admin", roleHandler.SetRoleAdminHandler)
			rolesAdmin.POST("/transfer-ownership", roleHandler.TransferOwnershipHandler)
			rolesAdmin.POST("/totp-secret", roleHandler.GenerateTOTPSecretHandler)
		}

		// ============ Transition stream ============
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api endpoints for available APIs",
		})
	})

	return r
}
