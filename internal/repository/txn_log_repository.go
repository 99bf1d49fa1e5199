package repository

import (
	"errors"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// txnLogRepository implements audit.Log on postgres. The (batch_id, index)
// composite primary key makes append-only ordering a schema property; the
// previous hash is read from the newest row under a row lock so appends
// chain without a separate last-hash table.
type txnLogRepository struct {
	db *gorm.DB
}

// NewTxnLogRepository creates a gorm-backed audit.Log.
func NewTxnLogRepository(db *gorm.DB) audit.Log {
	return &txnLogRepository{db: db}
}

func (r *txnLogRepository) Append(batchID uint64, actor, involvedParty common.Address, code models.EventCode, lat, lon int64, timestamp int64, dataHash common.Hash) (*models.TxnLogEntry, error) {
	var entry *models.TxnLogEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var last models.TxnLogEntry
		prev := audit.ZeroHash
		index := uint64(0)
		err := tx.Clauses(forUpdate()).
			Where("batch_id = ?", batchID).
			Order(`"index" DESC`).
			First(&last).Error
		if err == nil {
			prev = last.EntryHash
			index = last.Index + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		e := models.TxnLogEntry{
			BatchID:         batchID,
			Index:           index,
			Actor:           actor,
			InvolvedParty:   involvedParty,
			EventCode:       code,
			Latitude:        lat,
			Longitude:       lon,
			Timestamp:       timestamp,
			DataHash:        dataHash,
			PreviousLogHash: prev,
		}
		e.EntryHash = audit.EntryHash(&e)
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *txnLogRepository) History(batchID uint64) ([]models.TxnLogEntry, error) {
	var entries []models.TxnLogEntry
	err := r.db.
		Where("batch_id = ?", batchID).
		Order(`"index" ASC`).
		Find(&entries).Error
	return entries, err
}

func (r *txnLogRepository) LastHash(batchID uint64) (common.Hash, error) {
	var last models.TxnLogEntry
	err := r.db.
		Where("batch_id = ?", batchID).
		Order(`"index" DESC`).
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return audit.ZeroHash, nil
		}
		return audit.ZeroHash, err
	}
	return last.EntryHash, nil
}

func (r *txnLogRepository) Length(batchID uint64) (uint64, error) {
	var count int64
	err := r.db.Model(&models.TxnLogEntry{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return uint64(count), err
}
