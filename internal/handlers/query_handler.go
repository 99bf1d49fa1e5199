package handlers

import (
	"net/http"
	"strconv"

	"pharma-backend/internal/dto"
	"pharma-backend/internal/engine"
	"pharma-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QueryHandler exposes the read-only batch surface: type resolution,
// details, audit history, chain verification and listings.
type QueryHandler struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewQueryHandler creates the handler.
func NewQueryHandler(eng *engine.Engine, logger *logrus.Logger) *QueryHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QueryHandler{engine: eng, logger: logger}
}

// GetBatchTypeHandler resolves a batch id to its registered type.
// GET /api/batches/:id/type
func (h *QueryHandler) GetBatchTypeHandler(c *gin.Context) {
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	batchType, err := h.engine.GetBatchType(batchID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BatchTypeResponse{BatchID: batchID, BatchType: batchType})
}

// GetBatchDetailsHandler returns the full record of a batch, dispatching
// on its registered type.
// GET /api/batches/:id
func (h *QueryHandler) GetBatchDetailsHandler(c *gin.Context) {
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	batchType, err := h.engine.GetBatchType(batchID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	switch batchType {
	case models.BatchTypeRawMaterial:
		batch, err := h.engine.GetRawMaterialDetails(batchID)
		if err != nil {
			respondEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "batch_type": batchType, "batch": batch})
	case models.BatchTypeMedicine:
		batch, err := h.engine.GetMedicineDetails(batchID)
		if err != nil {
			respondEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "batch_type": batchType, "batch": batch})
	default:
		respondEngineError(c, engine.ErrNotFound)
	}
}

// GetHistoryHandler returns the ordered audit trail of a batch.
// GET /api/batches/:id/history
func (h *QueryHandler) GetHistoryHandler(c *gin.Context) {
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	entries, err := h.engine.GetHistory(batchID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{BatchID: batchID, Entries: entries})
}

// VerifyChainHandler recomputes the audit hash chain of a batch.
// GET /api/batches/:id/verify
func (h *QueryHandler) VerifyChainHandler(c *gin.Context) {
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	entries, err := h.engine.GetHistory(batchID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	resp := dto.VerifyResponse{
		BatchID: batchID,
		Valid:   true,
		Length:  uint64(len(entries)),
	}
	if err := h.engine.VerifyChain(batchID); err != nil {
		h.logger.WithFields(logrus.Fields{
			"batch_id": batchID,
			"error":    err.Error(),
		}).Error("audit chain verification failed")
		resp.Valid = false
		resp.Error = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// listParams reads page/page_size query parameters with defaults.
func listParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

// ListRawMaterialsHandler lists raw material batches, optionally filtered
// by status.
// GET /api/batches/raw-materials
func (h *QueryHandler) ListRawMaterialsHandler(c *gin.Context) {
	page, pageSize := listParams(c)
	status := models.RawMaterialStatus(c.Query("status"))

	items, total, err := h.engine.ListRawMaterials(status, page, pageSize)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BatchListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// ListMedicinesHandler lists medicine batches, optionally filtered by
// status.
// GET /api/batches/medicines
func (h *QueryHandler) ListMedicinesHandler(c *gin.Context) {
	page, pageSize := listParams(c)
	status := models.MedicineStatus(c.Query("status"))

	items, total, err := h.engine.ListMedicines(status, page, pageSize)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BatchListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}
