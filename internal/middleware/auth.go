package middleware

import (
	"net/http"
	"strings"

	"pharma-backend/internal/handlers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware validates the Bearer JWT and stores the caller account in
// the request context.
type AuthMiddleware struct {
	logger *logrus.Logger
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(logger *logrus.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthMiddleware{logger: logger}
}

// RequireAuth rejects requests without a valid token.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("auth failed - missing Authorization header")

			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required",
				"message": "Missing Authorization header. Please provide a valid JWT token.",
				"code":    "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("auth failed - invalid Authorization format")

			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid authorization format",
				"message": "Authorization header must be in format: Bearer <token>",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Empty token",
				"message": "Token cannot be empty",
				"code":    "EMPTY_TOKEN",
			})
			c.Abort()
			return
		}

		claims, err := handlers.ValidateJWTToken(tokenString)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"error":  err.Error(),
			}).Warn("auth failed - token validation failed")

			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
				"message": err.Error(),
				"code":    "INVALID_TOKEN",
			})
			c.Abort()
			return
		}

		c.Set(handlers.CallerKey, common.HexToAddress(claims.Address))

		a.logger.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"caller": claims.Address,
		}).Debug("auth ok")

		c.Next()
	}
}
