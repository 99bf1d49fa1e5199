package engine

import (
	"errors"
	"fmt"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/models"
	"pharma-backend/internal/store"
)

// GetBatchType returns the registered kind of a batch id, or BatchTypeNone
// for unknown ids. Never errors on absence so callers can distinguish
// "doesn't exist" from "exists but empty" without exception handling.
func (e *Engine) GetBatchType(batchID uint64) (models.BatchType, error) {
	return e.batches.BatchType(batchID)
}

// GetRawMaterialDetails returns a snapshot of a raw material batch.
func (e *Engine) GetRawMaterialDetails(batchID uint64) (*models.RawMaterialBatch, error) {
	batch, err := e.batches.GetRawMaterial(batchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: raw material batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}
	return batch, nil
}

// GetMedicineDetails returns a snapshot of a medicine batch.
func (e *Engine) GetMedicineDetails(batchID uint64) (*models.MedicineBatch, error) {
	batch, err := e.batches.GetMedicine(batchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: medicine batch %d", ErrNotFound, batchID)
		}
		return nil, err
	}
	return batch, nil
}

// GetHistory returns the ordered audit trail of a batch. Empty for unknown
// batch ids.
func (e *Engine) GetHistory(batchID uint64) ([]models.TxnLogEntry, error) {
	return e.txnLog.History(batchID)
}

// VerifyChain recomputes a batch's hash chain from stored fields and checks
// it against the tracked last hash. A nil error means every entry
// reproduces its stored hash and commits to its predecessor.
func (e *Engine) VerifyChain(batchID uint64) error {
	batchType, err := e.batches.BatchType(batchID)
	if err != nil {
		return err
	}
	if batchType == models.BatchTypeNone {
		return fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	entries, err := e.txnLog.History(batchID)
	if err != nil {
		return err
	}
	if err := audit.Verify(entries); err != nil {
		return err
	}
	last, err := e.txnLog.LastHash(batchID)
	if err != nil {
		return err
	}
	want := audit.ZeroHash
	if len(entries) > 0 {
		want = entries[len(entries)-1].EntryHash
	}
	if last != want {
		return fmt.Errorf("last log hash does not match final entry for batch %d", batchID)
	}
	return nil
}

// ListRawMaterials returns a page of raw material batches, optionally
// filtered by status ("" matches all).
func (e *Engine) ListRawMaterials(status models.RawMaterialStatus, page, pageSize int) ([]*models.RawMaterialBatch, int64, error) {
	return e.batches.ListRawMaterials(status, page, pageSize)
}

// ListMedicines returns a page of medicine batches, optionally filtered by
// status ("" matches all).
func (e *Engine) ListMedicines(status models.MedicineStatus, page, pageSize int) ([]*models.MedicineBatch, int64, error) {
	return e.batches.ListMedicines(status, page, pageSize)
}
