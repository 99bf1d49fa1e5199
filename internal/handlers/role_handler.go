package handlers

import (
	"net/http"

	"pharma-backend/internal/config"
	"pharma-backend/internal/dto"
	"pharma-backend/internal/models"
	"pharma-backend/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
)

// RoleHandler exposes the role registry administration surface. Mutations
// additionally require a TOTP code when a secret is configured; the
// grant-hierarchy checks themselves live in the rbac service.
type RoleHandler struct {
	roles  *rbac.Service
	logger *logrus.Logger
}

// NewRoleHandler creates the handler.
func NewRoleHandler(roles *rbac.Service, logger *logrus.Logger) *RoleHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoleHandler{roles: roles, logger: logger}
}

// checkTOTP validates the request's TOTP code against the configured
// secret. An empty configured secret disables the check.
func (h *RoleHandler) checkTOTP(c *gin.Context, code string) bool {
	secret := config.AppConfig.Auth.AdminTOTPSecret
	if secret == "" {
		return true
	}
	if !totp.Validate(code, secret) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid TOTP code",
			"code":    "invalid_totp",
		})
		return false
	}
	return true
}

// GrantRoleHandler grants a role to an account.
// POST /api/roles/grant
func (h *RoleHandler) GrantRoleHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.RoleMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_argument"})
		return
	}
	if !h.checkTOTP(c, req.TOTP) {
		return
	}
	account, ok := parseHexAddress(c, "account", req.Account)
	if !ok {
		return
	}

	if err := h.roles.GrantRole(caller, req.Role, account); err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "role granted"})
}

// RevokeRoleHandler revokes a role from an account.
// POST /api/roles/revoke
func (h *RoleHandler) RevokeRoleHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.RoleMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_argument"})
		return
	}
	if !h.checkTOTP(c, req.TOTP) {
		return
	}
	account, ok := parseHexAddress(c, "account", req.Account)
	if !ok {
		return
	}

	if err := h.roles.RevokeRole(caller, req.Role, account); err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "role revoked"})
}

// SetRoleAdminHandler changes which role administers another role.
// POST /api/roles/admin
func (h *RoleHandler) SetRoleAdminHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.SetRoleAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_argument"})
		return
	}
	if !h.checkTOTP(c, req.TOTP) {
		return
	}

	if err := h.roles.SetRoleAdmin(caller, req.Role, req.AdminRole); err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "role admin updated"})
}

// TransferOwnershipHandler moves system ownership to a new account.
// POST /api/roles/transfer-ownership
func (h *RoleHandler) TransferOwnershipHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_argument"})
		return
	}
	if !h.checkTOTP(c, req.TOTP) {
		return
	}
	newOwner, ok := parseHexAddress(c, "new_owner", req.NewOwner)
	if !ok {
		return
	}

	if err := h.roles.TransferOwnership(caller, newOwner); err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "ownership transferred"})
}

// HasRoleHandler answers a has-role query.
// GET /api/roles/:role/accounts/:account
func (h *RoleHandler) HasRoleHandler(c *gin.Context) {
	role := models.Role(c.Param("role"))
	account, ok := parseHexAddress(c, "account", c.Param("account"))
	if !ok {
		return
	}

	has, err := h.roles.HasRole(role, account)
	if err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RoleCheckResponse{
		Role:    role,
		Account: account.Hex(),
		HasRole: has,
	})
}

// GetRoleAdminHandler answers a get-role-admin query.
// GET /api/roles/:role/admin
func (h *RoleHandler) GetRoleAdminHandler(c *gin.Context) {
	role := models.Role(c.Param("role"))

	admin, err := h.roles.GetRoleAdmin(role)
	if err != nil {
		respondRBACError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RoleAdminResponse{Role: role, AdminRole: admin})
}

// GenerateTOTPSecretHandler generates a TOTP secret for bootstrap. Refuses
// when a secret is already configured.
// POST /api/roles/totp-secret
func (h *RoleHandler) GenerateTOTPSecretHandler(c *gin.Context) {
	if config.AppConfig.Auth.AdminTOTPSecret != "" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "TOTP secret already configured",
		})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Pharma Backend",
		AccountName: "admin@pharma",
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate TOTP secret",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"secret":  key.Secret(),
		"url":     key.URL(),
		"message": "Save this secret to the auth.admin_totp_secret config before enabling role administration.",
	})
}
