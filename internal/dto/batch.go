package dto

import "pharma-backend/internal/models"

// ==================== Batch lifecycle DTOs ====================
//
// Coordinates are micro-degrees (degrees * 1e6) carried as signed integers.
// The caller account comes from the JWT, never from the request body.

// CreateRawMaterialRequest creates a raw material batch.
type CreateRawMaterialRequest struct {
	Description          string `json:"description" binding:"required"`
	Quantity             uint64 `json:"quantity" binding:"required"`
	IntendedManufacturer string `json:"intended_manufacturer" binding:"required"` // 0x-prefixed hex
	Latitude             int64  `json:"latitude"`
	Longitude            int64  `json:"longitude"`
}

// CreateMedicineRequest creates a medicine batch from consumed raw materials.
type CreateMedicineRequest struct {
	Description    string   `json:"description" binding:"required"`
	Quantity       uint64   `json:"quantity" binding:"required"`
	RawMaterialIDs []uint64 `json:"raw_material_ids" binding:"required"`
	ExpiryDate     int64    `json:"expiry_date" binding:"required"` // unix seconds, must be in the future
	Latitude       int64    `json:"latitude"`
	Longitude      int64    `json:"longitude"`
}

// CreateBatchResponse returns the id assigned to a new batch.
type CreateBatchResponse struct {
	Success   bool             `json:"success"`
	BatchID   uint64           `json:"batch_id"`
	BatchType models.BatchType `json:"batch_type"`
}

// TransferRequest hands a batch to a transporter bound for receiver.
type TransferRequest struct {
	Transporter string `json:"transporter" binding:"required"` // 0x-prefixed hex
	Receiver    string `json:"receiver" binding:"required"`    // 0x-prefixed hex
	Latitude    int64  `json:"latitude"`
	Longitude   int64  `json:"longitude"`
}

// ReceiveRequest confirms arrival of an in-transit batch.
type ReceiveRequest struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// FinalizeRequest marks a delivered medicine batch consumed or sold.
type FinalizeRequest struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// DestroyRequest removes a batch from circulation.
type DestroyRequest struct {
	Reason    models.DestroyReason `json:"reason" binding:"required"`
	Latitude  int64                `json:"latitude"`
	Longitude int64                `json:"longitude"`
}

// TransitionResponse returns the audit entry appended by an accepted
// transfer, receive, finalize or destroy.
type TransitionResponse struct {
	Success bool                `json:"success"`
	Entry   *models.TxnLogEntry `json:"entry"`
}

// BatchTypeResponse resolves a batch id to its registered type.
type BatchTypeResponse struct {
	BatchID   uint64           `json:"batch_id"`
	BatchType models.BatchType `json:"batch_type"`
}

// HistoryResponse returns the ordered audit trail of one batch.
type HistoryResponse struct {
	BatchID uint64               `json:"batch_id"`
	Entries []models.TxnLogEntry `json:"entries"`
}

// VerifyResponse reports the result of a hash chain verification.
type VerifyResponse struct {
	BatchID uint64 `json:"batch_id"`
	Valid   bool   `json:"valid"`
	Length  uint64 `json:"length"`
	Error   string `json:"error,omitempty"`
}

// BatchListResponse is the paginated envelope for batch listings.
type BatchListResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}
