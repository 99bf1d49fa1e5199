package dto

import "pharma-backend/internal/models"

// ==================== Role administration DTOs ====================

// RoleMutationRequest grants or revokes a role for an account.
type RoleMutationRequest struct {
	Role    models.Role `json:"role" binding:"required"`
	Account string      `json:"account" binding:"required"` // 0x-prefixed hex
	TOTP    string      `json:"totp_code,omitempty"`
}

// SetRoleAdminRequest changes which role administers another role.
type SetRoleAdminRequest struct {
	Role      models.Role `json:"role" binding:"required"`
	AdminRole models.Role `json:"admin_role" binding:"required"`
	TOTP      string      `json:"totp_code,omitempty"`
}

// TransferOwnershipRequest moves system ownership to a new account.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" binding:"required"` // 0x-prefixed hex
	TOTP     string `json:"totp_code,omitempty"`
}

// RoleCheckResponse answers a has-role query.
type RoleCheckResponse struct {
	Role    models.Role `json:"role"`
	Account string      `json:"account"`
	HasRole bool        `json:"has_role"`
}

// RoleAdminResponse answers a get-role-admin query.
type RoleAdminResponse struct {
	Role      models.Role `json:"role"`
	AdminRole models.Role `json:"admin_role"`
}

// OwnerResponse returns the current system owner.
type OwnerResponse struct {
	Owner string `json:"owner"`
}
