package handlers

import (
	"net/http"

	"pharma-backend/internal/db"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler reports service liveness and storage mode.
// GET /api/health
func HealthCheckHandler(c *gin.Context) {
	storage := "memory"
	if db.DB != nil {
		storage = "postgres"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pharma-backend",
		"version": "v1.0",
		"storage": storage,
	})
}

// PingHandler is the minimal reachability probe.
// GET /ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
