package rbac

import (
	"sync"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

type grantKey struct {
	role    models.Role
	account common.Address
}

// MemoryStore is an in-process GrantStore guarded by a RWMutex. Used by the
// engine tests and by deployments that keep role membership outside the
// database.
type MemoryStore struct {
	mu         sync.RWMutex
	grants     map[grantKey]struct{}
	roleAdmins map[models.Role]models.Role
	owner      common.Address
}

// NewMemoryStore creates a store with the given bootstrap owner.
func NewMemoryStore(owner common.Address) *MemoryStore {
	return &MemoryStore{
		grants:     make(map[grantKey]struct{}),
		roleAdmins: make(map[models.Role]models.Role),
		owner:      owner,
	}
}

func (m *MemoryStore) HasGrant(role models.Role, account common.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.grants[grantKey{role, account}]
	return ok, nil
}

func (m *MemoryStore) SetGrant(role models.Role, account common.Address, grantedBy common.Address, granted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if granted {
		m.grants[grantKey{role, account}] = struct{}{}
	} else {
		delete(m.grants, grantKey{role, account})
	}
	return nil
}

func (m *MemoryStore) RoleAdmin(role models.Role) (models.Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	admin, ok := m.roleAdmins[role]
	return admin, ok, nil
}

func (m *MemoryStore) SetRoleAdmin(role models.Role, admin models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleAdmins[role] = admin
	return nil
}

func (m *MemoryStore) Owner() (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner, nil
}

func (m *MemoryStore) SetOwner(owner common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner = owner
	return nil
}
