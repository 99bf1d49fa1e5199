// Package engine implements the authorization-gated batch lifecycle state
// machine. Every entry point validates the caller's identity and roles
// against the current batch state before any mutation, then mutates the
// batch store and appends a chained audit log entry as one unit. A rejected
// call leaves no trace.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/metrics"
	"pharma-backend/internal/models"
	"pharma-backend/internal/rbac"
	"pharma-backend/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// TransitionEvent describes an accepted transition for downstream
// notification (NATS, WebSocket fanout). Published after commit.
type TransitionEvent struct {
	BatchID       uint64              `json:"batch_id"`
	BatchType     models.BatchType    `json:"batch_type"`
	EventCode     models.EventCode    `json:"event_code"`
	Actor         common.Address      `json:"actor"`
	InvolvedParty common.Address      `json:"involved_party"`
	NewStatus     string              `json:"new_status"`
	Entry         *models.TxnLogEntry `json:"entry"`
}

// Publisher receives accepted-transition notifications. Implementations
// must not block; delivery is best-effort and never affects the result.
type Publisher interface {
	PublishTransition(evt TransitionEvent)
}

// Engine is the lifecycle state machine. It is the single writer of the
// batch store and audit log; mutations are serialized per batch id.
type Engine struct {
	batches   store.BatchStore
	txnLog    audit.Log
	roles     rbac.Oracle
	logger    *logrus.Logger
	publisher Publisher
	now       func() time.Time

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// New creates an engine. publisher may be nil.
func New(batches store.BatchStore, txnLog audit.Log, roles rbac.Oracle, logger *logrus.Logger, publisher Publisher) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		batches:   batches,
		txnLog:    txnLog,
		roles:     roles,
		logger:    logger,
		publisher: publisher,
		now:       time.Now,
		locks:     make(map[uint64]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutations of one batch id.
func (e *Engine) lockFor(id uint64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

func (e *Engine) hasRole(role models.Role, account common.Address) (bool, error) {
	ok, err := e.roles.HasRole(role, account)
	if err != nil {
		return false, fmt.Errorf("role oracle: %w", err)
	}
	return ok, nil
}

// reject logs and counts a rejected operation.
func (e *Engine) reject(action string, batchID uint64, caller common.Address, err error) error {
	metrics.LifecycleTransitionsRejected.WithLabelValues(action, ErrorClass(err)).Inc()
	e.logger.WithFields(logrus.Fields{
		"action":   action,
		"batch_id": batchID,
		"caller":   caller.Hex(),
		"error":    err.Error(),
	}).Warn("lifecycle transition rejected")
	return err
}

// commit records metrics/logs for an accepted transition and notifies the
// publisher.
func (e *Engine) commit(action string, batchType models.BatchType, newStatus string, entry *models.TxnLogEntry) {
	metrics.LifecycleTransitionsAccepted.WithLabelValues(action).Inc()
	metrics.AuditChainLength.WithLabelValues(fmt.Sprint(entry.BatchID)).Set(float64(entry.Index + 1))
	e.logger.WithFields(logrus.Fields{
		"action":     action,
		"batch_id":   entry.BatchID,
		"event":      entry.EventCode,
		"log_index":  entry.Index,
		"new_status": newStatus,
		"actor":      entry.Actor.Hex(),
	}).Info("lifecycle transition accepted")
	if e.publisher != nil {
		e.publisher.PublishTransition(TransitionEvent{
			BatchID:       entry.BatchID,
			BatchType:     batchType,
			EventCode:     entry.EventCode,
			Actor:         entry.Actor,
			InvolvedParty: entry.InvolvedParty,
			NewStatus:     newStatus,
			Entry:         entry,
		})
	}
}

// ErrorClass maps an error to its taxonomy class name, used for metrics
// labels and API error codes.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrArgument):
		return "argument_error"
	case errors.Is(err, ErrRoleCheckFailed):
		return "role_check_failed"
	case errors.Is(err, ErrUnauthorizedActor):
		return "unauthorized_actor"
	case errors.Is(err, ErrInvalidStateForAction):
		return "invalid_state_for_action"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrReceiverMismatch):
		return "receiver_mismatch"
	case errors.Is(err, ErrInvalidReceiverRole):
		return "invalid_receiver_role"
	case errors.Is(err, ErrRawMaterialValidation):
		return "raw_material_validation_failed"
	case errors.Is(err, ErrAlreadyDestroyed):
		return "already_destroyed"
	case errors.Is(err, ErrAlreadyDestroyedOrFinalized):
		return "already_destroyed_or_finalized"
	case errors.Is(err, ErrBatchTypeUnknown):
		return "batch_type_unknown"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}

// storeErr converts a store-level rejection into the engine taxonomy.
// The engine validates before mutating, so this only fires if the store's
// defense-in-depth check caught an out-of-band race.
func storeErr(err error) error {
	if errors.Is(err, store.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrBatchTypeUnknown, err)
	}
	return err
}

// CreateRawMaterial creates a raw material batch. Caller must hold the
// supplier role; the intended manufacturer must hold the manufacturer role.
func (e *Engine) CreateRawMaterial(caller common.Address, description string, quantity uint64, intendedManufacturer common.Address, lat, lon int64) (uint64, error) {
	const action = "create_raw_material"

	isSupplier, err := e.hasRole(models.RoleSupplier, caller)
	if err != nil {
		return 0, e.reject(action, 0, caller, err)
	}
	if !isSupplier {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: caller lacks supplier role", ErrRoleCheckFailed))
	}
	if quantity == 0 {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: quantity must be positive", ErrArgument))
	}
	if intendedManufacturer == (common.Address{}) {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: intended manufacturer is required", ErrArgument))
	}
	isManufacturer, err := e.hasRole(models.RoleManufacturer, intendedManufacturer)
	if err != nil {
		return 0, e.reject(action, 0, caller, err)
	}
	if !isManufacturer {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: intended manufacturer lacks manufacturer role", ErrRoleCheckFailed))
	}

	now := e.now()
	batch, err := e.batches.CreateRawMaterial(description, quantity, caller, intendedManufacturer, now)
	if err != nil {
		return 0, e.reject(action, 0, caller, storeErr(err))
	}
	dataHash := audit.RawMaterialCreationHash(description, quantity, intendedManufacturer)
	entry, err := e.txnLog.Append(batch.ID, caller, intendedManufacturer, models.EventRawMaterialCreated, lat, lon, now.Unix(), dataHash)
	if err != nil {
		return 0, e.reject(action, batch.ID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeRawMaterial, string(batch.Status), entry)
	return batch.ID, nil
}

// CreateMedicine creates a medicine batch from received raw material
// batches. Caller must hold the manufacturer role and every referenced raw
// material must be Received and intended for the caller.
func (e *Engine) CreateMedicine(caller common.Address, description string, quantity uint64, rawMaterialIDs []uint64, expiry time.Time, lat, lon int64) (uint64, error) {
	const action = "create_medicine"

	isManufacturer, err := e.hasRole(models.RoleManufacturer, caller)
	if err != nil {
		return 0, e.reject(action, 0, caller, err)
	}
	if !isManufacturer {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: caller lacks manufacturer role", ErrRoleCheckFailed))
	}
	if len(rawMaterialIDs) == 0 {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: at least one raw material batch is required", ErrArgument))
	}
	if quantity == 0 {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: quantity must be positive", ErrArgument))
	}
	now := e.now()
	if !expiry.After(now) {
		return 0, e.reject(action, 0, caller, fmt.Errorf("%w: expiry date must be in the future", ErrArgument))
	}
	for _, id := range rawMaterialIDs {
		batchType, err := e.batches.BatchType(id)
		if err != nil {
			return 0, e.reject(action, 0, caller, storeErr(err))
		}
		if batchType != models.BatchTypeRawMaterial {
			return 0, e.reject(action, 0, caller, fmt.Errorf("%w: batch %d is not a raw material batch", ErrRawMaterialValidation, id))
		}
		rm, err := e.batches.GetRawMaterial(id)
		if err != nil {
			return 0, e.reject(action, 0, caller, storeErr(err))
		}
		if rm.Status != models.RawMaterialReceived {
			return 0, e.reject(action, 0, caller, fmt.Errorf("%w: batch %d is %s, not received", ErrRawMaterialValidation, id, rm.Status))
		}
		if rm.IntendedManufacturer != caller {
			return 0, e.reject(action, 0, caller, fmt.Errorf("%w: batch %d is intended for a different manufacturer", ErrRawMaterialValidation, id))
		}
	}

	batch, err := e.batches.CreateMedicine(description, quantity, rawMaterialIDs, caller, expiry, now)
	if err != nil {
		return 0, e.reject(action, 0, caller, storeErr(err))
	}
	dataHash := audit.MedicineCreationHash(description, quantity, rawMaterialIDs, expiry)
	entry, err := e.txnLog.Append(batch.ID, caller, common.Address{}, models.EventMedicineCreated, lat, lon, now.Unix(), dataHash)
	if err != nil {
		return 0, e.reject(action, batch.ID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeMedicine, string(batch.Status), entry)
	return batch.ID, nil
}

// InitiateTransfer hands a batch to a transporter bound for receiver.
// Dispatches on the registered batch kind.
func (e *Engine) InitiateTransfer(caller common.Address, batchID uint64, transporter, receiver common.Address, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "initiate_transfer"

	if caller == (common.Address{}) || transporter == (common.Address{}) || receiver == (common.Address{}) {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: caller, transporter and receiver are required", ErrInvalidAddress))
	}
	isTransporter, err := e.hasRole(models.RoleTransporter, transporter)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !isTransporter {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: %s lacks transporter role", ErrRoleCheckFailed, transporter.Hex()))
	}

	lock := e.lockFor(batchID)
	lock.Lock()
	defer lock.Unlock()

	batchType, err := e.batches.BatchType(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	switch batchType {
	case models.BatchTypeRawMaterial:
		return e.transferRawMaterial(caller, batchID, transporter, receiver, lat, lon)
	case models.BatchTypeMedicine:
		return e.transferMedicine(caller, batchID, transporter, receiver, lat, lon)
	default:
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch %d is not registered", ErrBatchTypeUnknown, batchID))
	}
}

func (e *Engine) transferRawMaterial(caller common.Address, batchID uint64, transporter, receiver common.Address, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "initiate_transfer"

	batch, err := e.batches.GetRawMaterial(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if caller != batch.Supplier {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only the supplier may initiate transfer", ErrUnauthorizedActor))
	}
	if batch.Status != models.RawMaterialCreated {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrInvalidStateForAction, batch.Status))
	}
	if receiver != batch.IntendedManufacturer {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: receiver must be the intended manufacturer", ErrReceiverMismatch))
	}
	isManufacturer, err := e.hasRole(models.RoleManufacturer, receiver)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !isManufacturer {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: receiver lacks manufacturer role", ErrRoleCheckFailed))
	}

	now := e.now()
	if err := e.batches.SetRawMaterialInTransit(batchID, transporter, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, transporter, models.EventRawMaterialInTransit, lat, lon, now.Unix(), audit.TransferHash(transporter, receiver))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeRawMaterial, string(models.RawMaterialInTransit), entry)
	return entry, nil
}

func (e *Engine) transferMedicine(caller common.Address, batchID uint64, transporter, receiver common.Address, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "initiate_transfer"

	batch, err := e.batches.GetMedicine(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if caller != batch.CurrentOwner {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only the current owner may initiate transfer", ErrUnauthorizedActor))
	}

	// Stage-dependent routing: current status determines the caller's
	// required role and which receiver roles open which transit legs.
	var callerRole models.Role
	var next models.MedicineStatus
	switch batch.Status {
	case models.MedicineCreated:
		callerRole = models.RoleManufacturer
		isWholesaler, err := e.hasRole(models.RoleWholesaler, receiver)
		if err != nil {
			return nil, e.reject(action, batchID, caller, err)
		}
		if isWholesaler {
			next = models.MedicineInTransitToW
			break
		}
		isDistributor, err := e.hasRole(models.RoleDistributor, receiver)
		if err != nil {
			return nil, e.reject(action, batchID, caller, err)
		}
		if isDistributor {
			next = models.MedicineInTransitToD
			break
		}
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: receiver must be a wholesaler or distributor", ErrInvalidReceiverRole))
	case models.MedicineAtWholesaler:
		callerRole = models.RoleWholesaler
		isDistributor, err := e.hasRole(models.RoleDistributor, receiver)
		if err != nil {
			return nil, e.reject(action, batchID, caller, err)
		}
		if !isDistributor {
			return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: receiver must be a distributor", ErrInvalidReceiverRole))
		}
		next = models.MedicineInTransitToD
	case models.MedicineAtDistributor:
		callerRole = models.RoleDistributor
		// Customer is implicit for any non-zero account; the receiver was
		// already checked non-zero.
		next = models.MedicineInTransitToC
	default:
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrInvalidStateForAction, batch.Status))
	}

	hasCallerRole, err := e.hasRole(callerRole, caller)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !hasCallerRole {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: caller lacks %s role", ErrRoleCheckFailed, callerRole))
	}

	now := e.now()
	if err := e.batches.SetMedicineInTransit(batchID, next, transporter, receiver, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, transporter, models.EventMedicineTransferStart, lat, lon, now.Unix(), audit.TransferHash(transporter, receiver))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeMedicine, string(next), entry)
	return entry, nil
}

// ReceivePackage confirms delivery of an in-transit batch. Dispatches on
// the registered batch kind.
func (e *Engine) ReceivePackage(caller common.Address, batchID uint64, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "receive_package"

	lock := e.lockFor(batchID)
	lock.Lock()
	defer lock.Unlock()

	batchType, err := e.batches.BatchType(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	switch batchType {
	case models.BatchTypeRawMaterial:
		return e.receiveRawMaterial(caller, batchID, lat, lon)
	case models.BatchTypeMedicine:
		return e.receiveMedicine(caller, batchID, lat, lon)
	default:
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch %d is not registered", ErrBatchTypeUnknown, batchID))
	}
}

func (e *Engine) receiveRawMaterial(caller common.Address, batchID uint64, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "receive_package"

	batch, err := e.batches.GetRawMaterial(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if caller != batch.IntendedManufacturer {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only the intended manufacturer may receive", ErrReceiverMismatch))
	}
	isManufacturer, err := e.hasRole(models.RoleManufacturer, caller)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !isManufacturer {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: caller lacks manufacturer role", ErrRoleCheckFailed))
	}
	if batch.Status != models.RawMaterialInTransit {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrInvalidStateForAction, batch.Status))
	}

	transporter := batch.CurrentTransporter
	now := e.now()
	if err := e.batches.SetRawMaterialReceived(batchID, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, transporter, models.EventRawMaterialReceived, lat, lon, now.Unix(), audit.ReceiptHash(transporter))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeRawMaterial, string(models.RawMaterialReceived), entry)
	return entry, nil
}

func (e *Engine) receiveMedicine(caller common.Address, batchID uint64, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "receive_package"

	batch, err := e.batches.GetMedicine(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if caller != batch.CurrentDestination {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: caller is not the recorded destination", ErrReceiverMismatch))
	}
	next, ok := store.MedicineArrivalStatus(batch.Status)
	if !ok {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrInvalidStateForAction, batch.Status))
	}
	var requiredRole models.Role
	switch next {
	case models.MedicineAtWholesaler:
		requiredRole = models.RoleWholesaler
	case models.MedicineAtDistributor:
		requiredRole = models.RoleDistributor
	case models.MedicineAtCustomer:
		requiredRole = models.RoleCustomer
	}
	hasRole, err := e.hasRole(requiredRole, caller)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !hasRole {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: caller lacks %s role", ErrRoleCheckFailed, requiredRole))
	}

	transporter := batch.CurrentTransporter
	now := e.now()
	if err := e.batches.SetMedicineReceived(batchID, caller, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, transporter, models.EventMedicineReceived, lat, lon, now.Unix(), audit.ReceiptHash(transporter))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeMedicine, string(next), entry)
	return entry, nil
}

// FinalizeMedicine marks a medicine batch as consumed or sold. Only the
// current owner may finalize, and only at the customer stage.
func (e *Engine) FinalizeMedicine(caller common.Address, batchID uint64, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "finalize_medicine"

	lock := e.lockFor(batchID)
	lock.Lock()
	defer lock.Unlock()

	batchType, err := e.batches.BatchType(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if batchType != models.BatchTypeMedicine {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch %d is not a medicine batch", ErrBatchTypeUnknown, batchID))
	}
	batch, err := e.batches.GetMedicine(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	if batch.Status.Terminal() {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrAlreadyDestroyedOrFinalized, batch.Status))
	}
	if caller != batch.CurrentOwner {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only the current owner may finalize", ErrUnauthorizedActor))
	}
	if batch.Status != models.MedicineAtCustomer {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrInvalidStateForAction, batch.Status))
	}

	now := e.now()
	if err := e.batches.SetMedicineConsumedOrSold(batchID, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, common.Address{}, models.EventMedicineFinalized, lat, lon, now.Unix(), audit.FinalizationHash())
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeMedicine, string(models.MedicineConsumedOrSold), entry)
	return entry, nil
}

// MarkDestroyed terminally destroys a batch from any non-terminal state,
// modeling recall and spoilage. Authorized callers: an admin, the raw
// material's supplier, or the medicine's current owner.
func (e *Engine) MarkDestroyed(caller common.Address, batchID uint64, reason models.DestroyReason, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "mark_destroyed"

	if !reason.Valid() {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: unknown destroy reason %q", ErrArgument, reason))
	}

	lock := e.lockFor(batchID)
	lock.Lock()
	defer lock.Unlock()

	batchType, err := e.batches.BatchType(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	switch batchType {
	case models.BatchTypeRawMaterial:
		return e.destroyRawMaterial(caller, batchID, reason, lat, lon)
	case models.BatchTypeMedicine:
		return e.destroyMedicine(caller, batchID, reason, lat, lon)
	default:
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch %d is not registered", ErrBatchTypeUnknown, batchID))
	}
}

func (e *Engine) destroyRawMaterial(caller common.Address, batchID uint64, reason models.DestroyReason, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "mark_destroyed"

	batch, err := e.batches.GetRawMaterial(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	isAdmin, err := e.hasRole(models.RoleAdmin, caller)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !isAdmin && caller != batch.Supplier {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only an admin or the supplier may destroy", ErrUnauthorizedActor))
	}
	if batch.Status == models.RawMaterialDestroyed {
		return nil, e.reject(action, batchID, caller, ErrAlreadyDestroyed)
	}

	now := e.now()
	if err := e.batches.SetRawMaterialDestroyed(batchID, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, common.Address{}, models.EventRawMaterialDestroyed, lat, lon, now.Unix(), audit.DestructionHash(reason))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeRawMaterial, string(models.RawMaterialDestroyed), entry)
	return entry, nil
}

func (e *Engine) destroyMedicine(caller common.Address, batchID uint64, reason models.DestroyReason, lat, lon int64) (*models.TxnLogEntry, error) {
	const action = "mark_destroyed"

	batch, err := e.batches.GetMedicine(batchID)
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	isAdmin, err := e.hasRole(models.RoleAdmin, caller)
	if err != nil {
		return nil, e.reject(action, batchID, caller, err)
	}
	if !isAdmin && caller != batch.CurrentOwner {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: only an admin or the current owner may destroy", ErrUnauthorizedActor))
	}
	if batch.Status.Terminal() {
		return nil, e.reject(action, batchID, caller, fmt.Errorf("%w: batch is %s", ErrAlreadyDestroyedOrFinalized, batch.Status))
	}

	now := e.now()
	if err := e.batches.SetMedicineDestroyed(batchID, now); err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	entry, err := e.txnLog.Append(batchID, caller, common.Address{}, models.EventMedicineDestroyed, lat, lon, now.Unix(), audit.DestructionHash(reason))
	if err != nil {
		return nil, e.reject(action, batchID, caller, storeErr(err))
	}
	e.commit(action, models.BatchTypeMedicine, string(models.MedicineDestroyed), entry)
	return entry, nil
}
