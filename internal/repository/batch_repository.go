// Package repository provides the gorm-backed implementations of the batch
// store, audit log, and role registry used in persistent deployments.
package repository

import (
	"errors"
	"fmt"
	"time"

	"pharma-backend/internal/models"
	"pharma-backend/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate returns the row-lock clause used by every mutator.
func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// batchRepository implements store.BatchStore on postgres. Each mutator
// runs in a transaction and re-checks the local state precondition under
// a row lock, so an out-of-band caller can never commit an illegal
// transition.
type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a gorm-backed store.BatchStore.
func NewBatchRepository(db *gorm.DB) store.BatchStore {
	return &batchRepository{db: db}
}

// allocateID registers a new batch id of the given kind. The type registry
// row's auto-increment key is the global batch id sequence.
func allocateID(tx *gorm.DB, batchType models.BatchType, now time.Time) (uint64, error) {
	record := models.BatchTypeRecord{BatchType: batchType, CreatedAt: now}
	if err := tx.Create(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (r *batchRepository) CreateRawMaterial(description string, quantity uint64, supplier, intendedManufacturer common.Address, now time.Time) (*models.RawMaterialBatch, error) {
	var batch *models.RawMaterialBatch
	err := r.db.Transaction(func(tx *gorm.DB) error {
		id, err := allocateID(tx, models.BatchTypeRawMaterial, now)
		if err != nil {
			return err
		}
		batch = &models.RawMaterialBatch{
			ID:                   id,
			Description:          description,
			Quantity:             quantity,
			Supplier:             supplier,
			IntendedManufacturer: intendedManufacturer,
			Status:               models.RawMaterialCreated,
			CreationTime:         now,
			LastUpdateTime:       now,
		}
		return tx.Create(batch).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *batchRepository) CreateMedicine(description string, quantity uint64, rawMaterialIDs []uint64, manufacturer common.Address, expiry time.Time, now time.Time) (*models.MedicineBatch, error) {
	var batch *models.MedicineBatch
	err := r.db.Transaction(func(tx *gorm.DB) error {
		id, err := allocateID(tx, models.BatchTypeMedicine, now)
		if err != nil {
			return err
		}
		batch = &models.MedicineBatch{
			ID:             id,
			Description:    description,
			Quantity:       quantity,
			RawMaterialIDs: rawMaterialIDs,
			Manufacturer:   manufacturer,
			ExpiryDate:     expiry,
			Status:         models.MedicineCreated,
			CurrentOwner:   manufacturer,
			CreationTime:   now,
			LastUpdateTime: now,
		}
		return tx.Create(batch).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *batchRepository) BatchType(id uint64) (models.BatchType, error) {
	var record models.BatchTypeRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BatchTypeNone, nil
		}
		return models.BatchTypeNone, err
	}
	return record.BatchType, nil
}

func (r *batchRepository) GetRawMaterial(id uint64) (*models.RawMaterialBatch, error) {
	var batch models.RawMaterialBatch
	err := r.db.Where("id = ?", id).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) GetMedicine(id uint64) (*models.MedicineBatch, error) {
	var batch models.MedicineBatch
	err := r.db.Where("id = ?", id).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) ListRawMaterials(status models.RawMaterialStatus, page, pageSize int) ([]*models.RawMaterialBatch, int64, error) {
	var batches []*models.RawMaterialBatch
	var total int64

	query := r.db.Model(&models.RawMaterialBatch{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	err := query.
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Order("id ASC").
		Find(&batches).Error
	return batches, total, err
}

func (r *batchRepository) ListMedicines(status models.MedicineStatus, page, pageSize int) ([]*models.MedicineBatch, int64, error) {
	var batches []*models.MedicineBatch
	var total int64

	query := r.db.Model(&models.MedicineBatch{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	err := query.
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Order("id ASC").
		Find(&batches).Error
	return batches, total, err
}

// lockRawMaterial loads a raw material row FOR UPDATE inside tx.
func lockRawMaterial(tx *gorm.DB, id uint64) (*models.RawMaterialBatch, error) {
	var batch models.RawMaterialBatch
	err := tx.Clauses(forUpdate()).Where("id = ?", id).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func lockMedicine(tx *gorm.DB, id uint64) (*models.MedicineBatch, error) {
	var batch models.MedicineBatch
	err := tx.Clauses(forUpdate()).Where("id = ?", id).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) SetRawMaterialInTransit(id uint64, transporter common.Address, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockRawMaterial(tx, id)
		if err != nil {
			return err
		}
		if batch.Status != models.RawMaterialCreated {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, models.RawMaterialInTransit)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              models.RawMaterialInTransit,
			"current_transporter": transporter,
			"last_update_time":    now,
		}).Error
	})
}

func (r *batchRepository) SetRawMaterialReceived(id uint64, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockRawMaterial(tx, id)
		if err != nil {
			return err
		}
		if batch.Status != models.RawMaterialInTransit {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, models.RawMaterialReceived)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              models.RawMaterialReceived,
			"current_transporter": common.Address{},
			"last_update_time":    now,
		}).Error
	})
}

func (r *batchRepository) SetRawMaterialDestroyed(id uint64, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockRawMaterial(tx, id)
		if err != nil {
			return err
		}
		if batch.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, models.RawMaterialDestroyed)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              models.RawMaterialDestroyed,
			"current_transporter": common.Address{},
			"last_update_time":    now,
		}).Error
	})
}

func (r *batchRepository) SetMedicineInTransit(id uint64, next models.MedicineStatus, transporter, destination common.Address, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockMedicine(tx, id)
		if err != nil {
			return err
		}
		if !next.InTransit() || !store.MedicineTransitAllowed(batch.Status, next) {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, next)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              next,
			"current_transporter": transporter,
			"current_destination": destination,
			"last_update_time":    now,
		}).Error
	})
}

func (r *batchRepository) SetMedicineReceived(id uint64, newOwner common.Address, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockMedicine(tx, id)
		if err != nil {
			return err
		}
		next, ok := store.MedicineArrivalStatus(batch.Status)
		if !ok {
			return fmt.Errorf("%w: %s is not in transit", store.ErrInvalidTransition, batch.Status)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              next,
			"current_owner":       newOwner,
			"current_transporter": common.Address{},
			"current_destination": common.Address{},
			"last_update_time":    now,
		}).Error
	})
}

func (r *batchRepository) SetMedicineConsumedOrSold(id uint64, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockMedicine(tx, id)
		if err != nil {
			return err
		}
		if batch.Status != models.MedicineAtCustomer {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, models.MedicineConsumedOrSold)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":           models.MedicineConsumedOrSold,
			"last_update_time": now,
		}).Error
	})
}

func (r *batchRepository) SetMedicineDestroyed(id uint64, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch, err := lockMedicine(tx, id)
		if err != nil {
			return err
		}
		if batch.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, batch.Status, models.MedicineDestroyed)
		}
		return tx.Model(batch).Updates(map[string]interface{}{
			"status":              models.MedicineDestroyed,
			"current_owner":       common.Address{},
			"current_transporter": common.Address{},
			"current_destination": common.Address{},
			"last_update_time":    now,
		}).Error
	})
}
