package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Role is a supply-chain participant role. Roles gate every lifecycle
// transition; membership is managed by the rbac registry.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSupplier     Role = "supplier"
	RoleTransporter  Role = "transporter"
	RoleManufacturer Role = "manufacturer"
	RoleWholesaler   Role = "wholesaler"
	RoleDistributor  Role = "distributor"
	RoleCustomer     Role = "customer"
)

// AllRoles lists every known role.
var AllRoles = []Role{
	RoleAdmin,
	RoleSupplier,
	RoleTransporter,
	RoleManufacturer,
	RoleWholesaler,
	RoleDistributor,
	RoleCustomer,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Immutable roles cannot be granted or revoked through the normal path:
// admin comes only with ownership, customer is implicit for every account.
func (r Role) Immutable() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// BatchType distinguishes the two batch kinds in the type registry.
// BatchTypeNone is the sentinel for unregistered ids.
type BatchType string

const (
	BatchTypeNone        BatchType = ""
	BatchTypeRawMaterial BatchType = "raw_material"
	BatchTypeMedicine    BatchType = "medicine"
)

// RawMaterialStatus lifecycle: Created -> InTransit -> Received, with
// Destroyed reachable from any non-terminal state.
type RawMaterialStatus string

const (
	RawMaterialCreated   RawMaterialStatus = "created"
	RawMaterialInTransit RawMaterialStatus = "in_transit"
	RawMaterialReceived  RawMaterialStatus = "received"
	RawMaterialDestroyed RawMaterialStatus = "destroyed"
)

// Terminal reports whether no further transition is permitted.
func (s RawMaterialStatus) Terminal() bool {
	return s == RawMaterialDestroyed
}

// MedicineStatus lifecycle DAG:
//
//	Created -> InTransitToW -> AtWholesaler -> InTransitToD -> AtDistributor
//	         -> InTransitToC -> AtCustomer -> ConsumedOrSold
//
// plus the shortcut Created -> InTransitToD (manufacturer ships directly to
// a distributor). Destroyed is reachable from any non-terminal state.
type MedicineStatus string

const (
	MedicineCreated        MedicineStatus = "created"
	MedicineInTransitToW   MedicineStatus = "in_transit_to_wholesaler"
	MedicineAtWholesaler   MedicineStatus = "at_wholesaler"
	MedicineInTransitToD   MedicineStatus = "in_transit_to_distributor"
	MedicineAtDistributor  MedicineStatus = "at_distributor"
	MedicineInTransitToC   MedicineStatus = "in_transit_to_customer"
	MedicineAtCustomer     MedicineStatus = "at_customer"
	MedicineConsumedOrSold MedicineStatus = "consumed_or_sold"
	MedicineDestroyed      MedicineStatus = "destroyed"
)

// Terminal reports whether no further transition is permitted.
func (s MedicineStatus) Terminal() bool {
	return s == MedicineConsumedOrSold || s == MedicineDestroyed
}

// InTransit reports whether the status is one of the three transit legs.
func (s MedicineStatus) InTransit() bool {
	return s == MedicineInTransitToW || s == MedicineInTransitToD || s == MedicineInTransitToC
}

// EventCode identifies the action type recorded in an audit log entry.
type EventCode string

const (
	EventRawMaterialCreated    EventCode = "RM_CREATED"
	EventRawMaterialInTransit  EventCode = "RM_TRANSFER_INITIATED"
	EventRawMaterialReceived   EventCode = "RM_RECEIVED"
	EventRawMaterialDestroyed  EventCode = "RM_DESTROYED"
	EventMedicineCreated       EventCode = "MED_CREATED"
	EventMedicineTransferStart EventCode = "MED_TRANSFER_INITIATED"
	EventMedicineReceived      EventCode = "MED_RECEIVED"
	EventMedicineFinalized     EventCode = "MED_FINALIZED"
	EventMedicineDestroyed     EventCode = "MED_DESTROYED"
)

// DestroyReason classifies why a batch was pulled from circulation.
type DestroyReason string

const (
	DestroyReasonExpired        DestroyReason = "expired"
	DestroyReasonDamaged        DestroyReason = "damaged"
	DestroyReasonRecalled       DestroyReason = "recalled"
	DestroyReasonQualityFailure DestroyReason = "quality_failure"
	DestroyReasonOther          DestroyReason = "other"
)

// Valid reports whether the reason is one of the known codes.
func (r DestroyReason) Valid() bool {
	switch r {
	case DestroyReasonExpired, DestroyReasonDamaged, DestroyReasonRecalled,
		DestroyReasonQualityFailure, DestroyReasonOther:
		return true
	}
	return false
}

// BatchTypeRecord backs the batch type registry. Its auto-increment primary
// key is the global batch id sequence shared by both batch kinds.
type BatchTypeRecord struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchType BatchType `json:"batch_type" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// RawMaterialBatch is a raw material lot moving supplier -> manufacturer.
// Description, quantity, supplier, intended manufacturer and creation time
// are immutable after creation.
type RawMaterialBatch struct {
	ID                   uint64            `json:"id" gorm:"primaryKey"`
	Description          string            `json:"description" gorm:"type:text;not null"`
	Quantity             uint64            `json:"quantity" gorm:"not null"`
	Supplier             common.Address    `json:"supplier" gorm:"type:bytea;not null;index:idx_rm_supplier"`
	IntendedManufacturer common.Address    `json:"intended_manufacturer" gorm:"type:bytea;not null"`
	Status               RawMaterialStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_rm_status"`
	CurrentTransporter   common.Address    `json:"current_transporter" gorm:"type:bytea"`
	CreationTime         time.Time         `json:"creation_time"`
	LastUpdateTime       time.Time         `json:"last_update_time"`
}

// MedicineBatch is a finished medicine lot. The raw material references are
// validated against the registry at creation and immutable afterwards.
type MedicineBatch struct {
	ID                 uint64         `json:"id" gorm:"primaryKey"`
	Description        string         `json:"description" gorm:"type:text;not null"`
	Quantity           uint64         `json:"quantity" gorm:"not null"`
	RawMaterialIDs     []uint64       `json:"raw_material_ids" gorm:"serializer:json;type:jsonb;not null"`
	Manufacturer       common.Address `json:"manufacturer" gorm:"type:bytea;not null"`
	ExpiryDate         time.Time      `json:"expiry_date" gorm:"not null"`
	Status             MedicineStatus `json:"status" gorm:"type:varchar(30);not null;index:idx_med_status"`
	CurrentOwner       common.Address `json:"current_owner" gorm:"type:bytea;index:idx_med_owner"`
	CurrentTransporter common.Address `json:"current_transporter" gorm:"type:bytea"`
	CurrentDestination common.Address `json:"current_destination" gorm:"type:bytea"`
	CreationTime       time.Time      `json:"creation_time"`
	LastUpdateTime     time.Time      `json:"last_update_time"`
}

// TxnLogEntry is one link of a batch's tamper-evident audit chain.
// EntryHash = keccak256(index, actor, involved_party, event_code, lat, lon,
// timestamp, data_hash, previous_log_hash); the first entry's previous hash
// is the zero sentinel. Timestamps are unix seconds so the hash input is
// unambiguous across store backends.
type TxnLogEntry struct {
	BatchID         uint64         `json:"batch_id" gorm:"primaryKey;autoIncrement:false;index:idx_log_batch"`
	Index           uint64         `json:"index" gorm:"primaryKey;autoIncrement:false"`
	Actor           common.Address `json:"actor" gorm:"type:bytea;not null"`
	InvolvedParty   common.Address `json:"involved_party" gorm:"type:bytea"`
	EventCode       EventCode      `json:"event_code" gorm:"type:varchar(30);not null"`
	Latitude        int64          `json:"latitude"`  // micro-degrees
	Longitude       int64          `json:"longitude"` // micro-degrees
	Timestamp       int64          `json:"timestamp" gorm:"not null"`
	DataHash        common.Hash    `json:"data_hash" gorm:"type:bytea;not null"`
	PreviousLogHash common.Hash    `json:"previous_log_hash" gorm:"type:bytea;not null"`
	EntryHash       common.Hash    `json:"entry_hash" gorm:"type:bytea;not null"`
}

// RoleGrant is one (role, account) membership row in the rbac registry.
type RoleGrant struct {
	Role      Role           `json:"role" gorm:"primaryKey;type:varchar(20)"`
	Account   common.Address `json:"account" gorm:"primaryKey;type:bytea"`
	GrantedBy common.Address `json:"granted_by" gorm:"type:bytea"`
	CreatedAt time.Time      `json:"created_at"`
}

// RoleAdminRecord overrides the admin role controlling grant/revoke of Role.
// Absent rows default to RoleAdmin.
type RoleAdminRecord struct {
	Role      Role      `json:"role" gorm:"primaryKey;type:varchar(20)"`
	AdminRole Role      `json:"admin_role" gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemOwner is the single-row table holding the system owner account.
type SystemOwner struct {
	ID        uint8          `json:"id" gorm:"primaryKey"` // always 1
	Owner     common.Address `json:"owner" gorm:"type:bytea;not null"`
	UpdatedAt time.Time      `json:"updated_at"`
}
