package handlers

import (
	"net/http"
	"time"

	"pharma-backend/internal/dto"
	"pharma-backend/internal/engine"
	"pharma-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BatchHandler exposes the six lifecycle commands. All routes require
// authentication; the caller account always comes from the JWT.
type BatchHandler struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewBatchHandler creates the handler.
func NewBatchHandler(eng *engine.Engine, logger *logrus.Logger) *BatchHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BatchHandler{engine: eng, logger: logger}
}

// CreateRawMaterialHandler creates a raw material batch.
// POST /api/batches/raw-materials
func (h *BatchHandler) CreateRawMaterialHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.CreateRawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	manufacturer, ok := parseHexAddress(c, "intended_manufacturer", req.IntendedManufacturer)
	if !ok {
		return
	}

	batchID, err := h.engine.CreateRawMaterial(caller, req.Description, req.Quantity, manufacturer, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateBatchResponse{
		Success:   true,
		BatchID:   batchID,
		BatchType: models.BatchTypeRawMaterial,
	})
}

// CreateMedicineHandler creates a medicine batch consuming raw materials.
// POST /api/batches/medicines
func (h *BatchHandler) CreateMedicineHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req dto.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	expiry := time.Unix(req.ExpiryDate, 0)
	batchID, err := h.engine.CreateMedicine(caller, req.Description, req.Quantity, req.RawMaterialIDs, expiry, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateBatchResponse{
		Success:   true,
		BatchID:   batchID,
		BatchType: models.BatchTypeMedicine,
	})
}

// TransferHandler hands a batch to a transporter bound for a receiver.
// POST /api/batches/:id/transfer
func (h *BatchHandler) TransferHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	transporter, ok := parseHexAddress(c, "transporter", req.Transporter)
	if !ok {
		return
	}
	receiver, ok := parseHexAddress(c, "receiver", req.Receiver)
	if !ok {
		return
	}

	entry, err := h.engine.InitiateTransfer(caller, batchID, transporter, receiver, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionResponse{Success: true, Entry: entry})
}

// ReceiveHandler confirms arrival of an in-transit batch.
// POST /api/batches/:id/receive
func (h *BatchHandler) ReceiveHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	var req dto.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	entry, err := h.engine.ReceivePackage(caller, batchID, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionResponse{Success: true, Entry: entry})
}

// FinalizeHandler marks a delivered medicine batch consumed or sold.
// POST /api/batches/:id/finalize
func (h *BatchHandler) FinalizeHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	entry, err := h.engine.FinalizeMedicine(caller, batchID, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionResponse{Success: true, Entry: entry})
}

// DestroyHandler removes a batch from circulation.
// POST /api/batches/:id/destroy
func (h *BatchHandler) DestroyHandler(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}
	batchID, ok := parseBatchID(c)
	if !ok {
		return
	}

	var req dto.DestroyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "invalid_argument",
		})
		return
	}

	entry, err := h.engine.MarkDestroyed(caller, batchID, req.Reason, req.Latitude, req.Longitude)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionResponse{Success: true, Entry: entry})
}
