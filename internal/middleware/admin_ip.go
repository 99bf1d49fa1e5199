package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminIPAllowlist restricts role administration routes to localhost plus a
// configured set of IPs or CIDR ranges.
type AdminIPAllowlist struct {
	logger     *logrus.Logger
	allowedIPs []string
}

// NewAdminIPAllowlist creates the middleware.
func NewAdminIPAllowlist(logger *logrus.Logger, allowedIPs []string) *AdminIPAllowlist {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminIPAllowlist{logger: logger, allowedIPs: allowedIPs}
}

// Restrict denies requests from outside the allowlist.
func (l *AdminIPAllowlist) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)

		if !l.isAllowed(clientIP) {
			// A proxy header may hide a genuine local connection; the direct
			// peer being loopback is still acceptable.
			if remoteIP == clientIP || !isLoopback(remoteIP) {
				l.logger.WithFields(logrus.Fields{
					"client_ip": clientIP,
					"remote_ip": remoteIP,
					"path":      c.Request.URL.Path,
					"method":    c.Request.Method,
				}).Warn("rejected non-allowlisted access to admin API")

				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   "This API is only accessible from allowed IP addresses",
					"code":    "IP_NOT_ALLOWED",
				})
				return
			}
		}

		c.Next()
	}
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip == "localhost"
	}
	return parsed.IsLoopback()
}

// isAllowed checks the allowlist, which may hold exact IPs or CIDR ranges.
// Loopback is always allowed.
func (l *AdminIPAllowlist) isAllowed(ip string) bool {
	if isLoopback(ip) {
		return true
	}

	parsed := net.ParseIP(ip)
	for _, allowed := range l.allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if strings.Contains(allowed, "/") {
			_, ipNet, err := net.ParseCIDR(allowed)
			if err != nil {
				l.logger.WithFields(logrus.Fields{
					"allowed": allowed,
					"error":   err.Error(),
				}).Warn("invalid CIDR in admin allowlist")
				continue
			}
			if parsed != nil && ipNet.Contains(parsed) {
				return true
			}
		} else if allowed == ip {
			return true
		} else if allowedIP := net.ParseIP(allowed); allowedIP != nil && parsed != nil && allowedIP.Equal(parsed) {
			return true
		}
	}
	return false
}
