package dto

import "github.com/golang-jwt/jwt/v5"

// ==================== Auth DTOs ====================

// AuthRequest token issuance request
type AuthRequest struct {
	Address   string `json:"address" binding:"required"`   // caller account, 0x-prefixed hex
	Message   string `json:"message" binding:"required"`   // message to be signed
	Signature string `json:"signature" binding:"required"` // wallet signature over message
}

// AuthResponse token issuance response
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// JWTClaims JWT Claims structure
type JWTClaims struct {
	Address string `json:"address"` // caller account, 0x-prefixed hex
	jwt.RegisteredClaims
}
