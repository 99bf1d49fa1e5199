// Package rbac implements the role registry the lifecycle engine consumes.
// The engine only reads (HasRole / IsOwner); the mutation surface is exposed
// to the administration API.
package rbac

import (
	"errors"
	"fmt"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	// ErrImmutableRole admin and customer cannot be granted or revoked.
	ErrImmutableRole = errors.New("immutable role")

	// ErrNotRoleAdmin caller does not hold the admin role for the target role.
	ErrNotRoleAdmin = errors.New("caller is not role admin")

	// ErrNotOwner caller is not the system owner.
	ErrNotOwner = errors.New("caller is not owner")

	// ErrInvalidAddress a required account argument was the zero address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrUnknownRole the role name is not part of the role set.
	ErrUnknownRole = errors.New("unknown role")
)

// Oracle is the read contract the lifecycle engine depends on.
type Oracle interface {
	HasRole(role models.Role, account common.Address) (bool, error)
	IsOwner(account common.Address) (bool, error)
}

// GrantStore persists role memberships, per-role admin overrides, and the
// owner account. Implementations: the in-memory store below and the
// gorm-backed store in internal/repository.
type GrantStore interface {
	HasGrant(role models.Role, account common.Address) (bool, error)
	SetGrant(role models.Role, account common.Address, grantedBy common.Address, granted bool) error
	RoleAdmin(role models.Role) (models.Role, bool, error)
	SetRoleAdmin(role models.Role, admin models.Role) error
	Owner() (common.Address, error)
	SetOwner(owner common.Address) error
}

// Service enforces the grant-hierarchy rules over a GrantStore.
type Service struct {
	store  GrantStore
	logger *logrus.Logger
}

// NewService wraps the given store. The owner must already be bootstrapped
// into the store (see NewMemoryStore / repository.BootstrapOwner).
func NewService(store GrantStore, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: store, logger: logger}
}

// HasRole implements Oracle. Customer is implicit for every non-zero
// account; the owner implicitly holds admin.
func (s *Service) HasRole(role models.Role, account common.Address) (bool, error) {
	if !role.Valid() {
		return false, nil
	}
	if account == (common.Address{}) {
		return false, nil
	}
	if role == models.RoleCustomer {
		return true, nil
	}
	if role == models.RoleAdmin {
		owner, err := s.store.Owner()
		if err != nil {
			return false, err
		}
		if account == owner {
			return true, nil
		}
	}
	return s.store.HasGrant(role, account)
}

// IsOwner implements Oracle.
func (s *Service) IsOwner(account common.Address) (bool, error) {
	owner, err := s.store.Owner()
	if err != nil {
		return false, err
	}
	return owner != (common.Address{}) && account == owner, nil
}

// GetRoleAdmin returns the role that controls grant/revoke of role.
// Admin administers itself; everything else defaults to admin unless
// overridden via SetRoleAdmin.
func (s *Service) GetRoleAdmin(role models.Role) (models.Role, error) {
	if !role.Valid() {
		return "", ErrUnknownRole
	}
	if role == models.RoleAdmin {
		return models.RoleAdmin, nil
	}
	admin, ok, err := s.store.RoleAdmin(role)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.RoleAdmin, nil
	}
	return admin, nil
}

// GrantRole grants role to account. The caller must hold the role's admin
// role; immutable roles are rejected outright.
func (s *Service) GrantRole(caller common.Address, role models.Role, account common.Address) error {
	if err := s.checkRoleMutation(caller, role, account); err != nil {
		return err
	}
	if err := s.store.SetGrant(role, account, caller, true); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"role":    role,
		"account": account.Hex(),
		"caller":  caller.Hex(),
	}).Info("role granted")
	return nil
}

// RevokeRole revokes role from account under the same rules as GrantRole.
func (s *Service) RevokeRole(caller common.Address, role models.Role, account common.Address) error {
	if err := s.checkRoleMutation(caller, role, account); err != nil {
		return err
	}
	if err := s.store.SetGrant(role, account, caller, false); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"role":    role,
		"account": account.Hex(),
		"caller":  caller.Hex(),
	}).Info("role revoked")
	return nil
}

// SetRoleAdmin changes which role administers role. Caller must hold admin.
func (s *Service) SetRoleAdmin(caller common.Address, role models.Role, adminRole models.Role) error {
	if !role.Valid() || !adminRole.Valid() {
		return ErrUnknownRole
	}
	if role.Immutable() {
		return fmt.Errorf("%w: %s", ErrImmutableRole, role)
	}
	isAdmin, err := s.HasRole(models.RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotRoleAdmin
	}
	if err := s.store.SetRoleAdmin(role, adminRole); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"role":       role,
		"admin_role": adminRole,
		"caller":     caller.Hex(),
	}).Info("role admin updated")
	return nil
}

// TransferOwnership moves ownership to newOwner. Only the current owner may
// call, and the new owner must be non-zero. Ownership is the sole path to
// the admin role.
func (s *Service) TransferOwnership(caller common.Address, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return ErrInvalidAddress
	}
	isOwner, err := s.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrNotOwner
	}
	if err := s.store.SetOwner(newOwner); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"previous_owner": caller.Hex(),
		"new_owner":      newOwner.Hex(),
	}).Info("ownership transferred")
	return nil
}

func (s *Service) checkRoleMutation(caller common.Address, role models.Role, account common.Address) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if role.Immutable() {
		return fmt.Errorf("%w: %s", ErrImmutableRole, role)
	}
	if account == (common.Address{}) {
		return ErrInvalidAddress
	}
	adminRole, err := s.GetRoleAdmin(role)
	if err != nil {
		return err
	}
	ok, err := s.HasRole(adminRole, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: need %s to manage %s", ErrNotRoleAdmin, adminRole, role)
	}
	return nil
}
