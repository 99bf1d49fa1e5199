// Package store holds the batch records: immutable creation facts plus the
// mutable lifecycle state. Mutators re-validate the local state-machine
// precondition even though the lifecycle engine checks first, so the store
// never accepts an illegal transition when invoked out of band.
package store

import (
	"errors"
	"time"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound the batch id is not registered, or registered as a
	// different kind than requested.
	ErrNotFound = errors.New("batch not found")

	// ErrInvalidTransition the current status forbids the requested
	// mutation (store-level double check).
	ErrInvalidTransition = errors.New("store: invalid state transition")
)

// BatchStore is the persistence contract the lifecycle engine mutates.
// Only the engine may call the Set* methods; external callers go through
// the engine so the state machine and audit chain stay consistent.
type BatchStore interface {
	// CreateRawMaterial registers a new id in the type registry and stores
	// the batch with status Created.
	CreateRawMaterial(description string, quantity uint64, supplier, intendedManufacturer common.Address, now time.Time) (*models.RawMaterialBatch, error)

	// CreateMedicine registers a new id and stores the batch with status
	// Created and the manufacturer as initial owner.
	CreateMedicine(description string, quantity uint64, rawMaterialIDs []uint64, manufacturer common.Address, expiry time.Time, now time.Time) (*models.MedicineBatch, error)

	// BatchType returns the registered kind, or BatchTypeNone if unknown.
	BatchType(id uint64) (models.BatchType, error)

	GetRawMaterial(id uint64) (*models.RawMaterialBatch, error)
	GetMedicine(id uint64) (*models.MedicineBatch, error)

	ListRawMaterials(status models.RawMaterialStatus, page, pageSize int) ([]*models.RawMaterialBatch, int64, error)
	ListMedicines(status models.MedicineStatus, page, pageSize int) ([]*models.MedicineBatch, int64, error)

	// Raw material mutators.
	SetRawMaterialInTransit(id uint64, transporter common.Address, now time.Time) error
	SetRawMaterialReceived(id uint64, now time.Time) error
	SetRawMaterialDestroyed(id uint64, now time.Time) error

	// Medicine mutators. next must be one of the transit statuses for
	// SetMedicineInTransit; SetMedicineReceived advances to the matching
	// at-stage status and reassigns ownership.
	SetMedicineInTransit(id uint64, next models.MedicineStatus, transporter, destination common.Address, now time.Time) error
	SetMedicineReceived(id uint64, newOwner common.Address, now time.Time) error
	SetMedicineConsumedOrSold(id uint64, now time.Time) error
	SetMedicineDestroyed(id uint64, now time.Time) error
}

// medicineTransitOrigins maps each transit leg to the statuses it may start
// from. Created may ship to a wholesaler or directly to a distributor.
var medicineTransitOrigins = map[models.MedicineStatus][]models.MedicineStatus{
	models.MedicineInTransitToW: {models.MedicineCreated},
	models.MedicineInTransitToD: {models.MedicineCreated, models.MedicineAtWholesaler},
	models.MedicineInTransitToC: {models.MedicineAtDistributor},
}

// medicineArrivals maps each transit leg to the at-stage status a receive
// lands on.
var medicineArrivals = map[models.MedicineStatus]models.MedicineStatus{
	models.MedicineInTransitToW: models.MedicineAtWholesaler,
	models.MedicineInTransitToD: models.MedicineAtDistributor,
	models.MedicineInTransitToC: models.MedicineAtCustomer,
}

// MedicineArrivalStatus returns the at-stage status a transit leg lands on,
// or false if the given status is not a transit leg.
func MedicineArrivalStatus(transit models.MedicineStatus) (models.MedicineStatus, bool) {
	next, ok := medicineArrivals[transit]
	return next, ok
}

// MedicineTransitAllowed reports whether the status graph permits moving
// from the current status onto the given transit leg.
func MedicineTransitAllowed(from, to models.MedicineStatus) bool {
	for _, origin := range medicineTransitOrigins[to] {
		if origin == from {
			return true
		}
	}
	return false
}
