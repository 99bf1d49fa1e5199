package repository

import (
	"errors"
	"fmt"

	"pharma-backend/internal/models"
	"pharma-backend/internal/rbac"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// roleRepository implements rbac.GrantStore on postgres. Grants are rows in
// role_grants keyed by (role, account); revocation deletes the row so
// HasGrant is a pure existence check.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a gorm-backed rbac.GrantStore.
func NewRoleRepository(db *gorm.DB) rbac.GrantStore {
	return &roleRepository{db: db}
}

// BootstrapOwner writes the initial owner row if none exists yet. Called once
// at startup with the configured chain owner; a later TransferOwnership wins
// over the config value on restart.
func BootstrapOwner(db *gorm.DB, owner common.Address) error {
	if owner == (common.Address{}) {
		return fmt.Errorf("bootstrap owner: zero address")
	}
	row := models.SystemOwner{ID: 1, Owner: owner}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *roleRepository) HasGrant(role models.Role, account common.Address) (bool, error) {
	var count int64
	err := r.db.Model(&models.RoleGrant{}).
		Where("role = ? AND account = ?", role, account).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) SetGrant(role models.Role, account common.Address, grantedBy common.Address, granted bool) error {
	if !granted {
		return r.db.
			Where("role = ? AND account = ?", role, account).
			Delete(&models.RoleGrant{}).Error
	}
	row := models.RoleGrant{Role: role, Account: account, GrantedBy: grantedBy}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *roleRepository) RoleAdmin(role models.Role) (models.Role, bool, error) {
	var row models.RoleAdminRecord
	err := r.db.Where("role = ?", role).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.AdminRole, true, nil
}

func (r *roleRepository) SetRoleAdmin(role models.Role, admin models.Role) error {
	row := models.RoleAdminRecord{Role: role, AdminRole: admin}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin_role", "updated_at"}),
	}).Create(&row).Error
}

func (r *roleRepository) Owner() (common.Address, error) {
	var row models.SystemOwner
	err := r.db.First(&row, "id = ?", 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Address{}, nil
		}
		return common.Address{}, err
	}
	return row.Owner, nil
}

func (r *roleRepository) SetOwner(owner common.Address) error {
	row := models.SystemOwner{ID: 1, Owner: owner}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "updated_at"}),
	}).Create(&row).Error
}
