// Package handlers implements the HTTP surface over the lifecycle engine
// and role registry.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pharma-backend/internal/engine"
	"pharma-backend/internal/rbac"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key the auth middleware stores the
// authenticated account under.
const CallerKey = "caller_address"

// callerAddress extracts the authenticated account set by the auth
// middleware. The middleware guarantees presence on protected routes.
func callerAddress(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// parseBatchID parses the :id path parameter.
func parseBatchID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid batch id",
			"message": "batch id must be a positive integer",
			"code":    "invalid_argument",
		})
		return 0, false
	}
	return id, true
}

// parseHexAddress validates and decodes a 0x-prefixed hex account.
func parseHexAddress(c *gin.Context, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid address",
			"message": field + " must be a 0x-prefixed hex address",
			"code":    "invalid_address",
		})
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// engineErrStatus maps a lifecycle engine error to its HTTP status.
func engineErrStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidAddress),
		errors.Is(err, engine.ErrArgument):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrRoleCheckFailed),
		errors.Is(err, engine.ErrUnauthorizedActor):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, engine.ErrBatchTypeUnknown):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidStateForAction),
		errors.Is(err, engine.ErrInvalidStateTransition),
		errors.Is(err, engine.ErrReceiverMismatch),
		errors.Is(err, engine.ErrInvalidReceiverRole),
		errors.Is(err, engine.ErrRawMaterialValidation),
		errors.Is(err, engine.ErrAlreadyDestroyed),
		errors.Is(err, engine.ErrAlreadyDestroyedOrFinalized):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondEngineError writes the unified error envelope for an engine
// rejection.
func respondEngineError(c *gin.Context, err error) {
	c.JSON(engineErrStatus(err), gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    engine.ErrorClass(err),
	})
}

// respondRBACError writes the unified error envelope for a role registry
// rejection.
func respondRBACError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, rbac.ErrInvalidAddress):
		status, code = http.StatusBadRequest, "invalid_address"
	case errors.Is(err, rbac.ErrUnknownRole):
		status, code = http.StatusBadRequest, "unknown_role"
	case errors.Is(err, rbac.ErrNotRoleAdmin):
		status, code = http.StatusForbidden, "not_role_admin"
	case errors.Is(err, rbac.ErrNotOwner):
		status, code = http.StatusForbidden, "not_owner"
	case errors.Is(err, rbac.ErrImmutableRole):
		status, code = http.StatusConflict, "immutable_role"
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
