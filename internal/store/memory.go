package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore is an in-process BatchStore guarded by a RWMutex. Batch ids
// are a single monotonic sequence shared by both kinds, starting at 1.
type MemoryStore struct {
	mu           sync.RWMutex
	nextID       uint64
	types        map[uint64]models.BatchType
	rawMaterials map[uint64]*models.RawMaterialBatch
	medicines    map[uint64]*models.MedicineBatch
}

// NewMemoryStore creates an empty in-memory batch store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:       1,
		types:        make(map[uint64]models.BatchType),
		rawMaterials: make(map[uint64]*models.RawMaterialBatch),
		medicines:    make(map[uint64]*models.MedicineBatch),
	}
}

func (s *MemoryStore) CreateRawMaterial(description string, quantity uint64, supplier, intendedManufacturer common.Address, now time.Time) (*models.RawMaterialBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	batch := &models.RawMaterialBatch{
		ID:                   id,
		Description:          description,
		Quantity:             quantity,
		Supplier:             supplier,
		IntendedManufacturer: intendedManufacturer,
		Status:               models.RawMaterialCreated,
		CreationTime:         now,
		LastUpdateTime:       now,
	}
	s.types[id] = models.BatchTypeRawMaterial
	s.rawMaterials[id] = batch
	out := *batch
	return &out, nil
}

func (s *MemoryStore) CreateMedicine(description string, quantity uint64, rawMaterialIDs []uint64, manufacturer common.Address, expiry time.Time, now time.Time) (*models.MedicineBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ids := make([]uint64, len(rawMaterialIDs))
	copy(ids, rawMaterialIDs)
	batch := &models.MedicineBatch{
		ID:             id,
		Description:    description,
		Quantity:       quantity,
		RawMaterialIDs: ids,
		Manufacturer:   manufacturer,
		ExpiryDate:     expiry,
		Status:         models.MedicineCreated,
		CurrentOwner:   manufacturer,
		CreationTime:   now,
		LastUpdateTime: now,
	}
	s.types[id] = models.BatchTypeMedicine
	s.medicines[id] = batch
	out := *batch
	return &out, nil
}

func (s *MemoryStore) BatchType(id uint64) (models.BatchType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types[id], nil
}

func (s *MemoryStore) GetRawMaterial(id uint64) (*models.RawMaterialBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.rawMaterials[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *batch
	return &out, nil
}

func (s *MemoryStore) GetMedicine(id uint64) (*models.MedicineBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.medicines[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *batch
	return &out, nil
}

func (s *MemoryStore) ListRawMaterials(status models.RawMaterialStatus, page, pageSize int) ([]*models.RawMaterialBatch, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.RawMaterialBatch, 0, len(s.rawMaterials))
	for _, b := range s.rawMaterials {
		if status != "" && b.Status != status {
			continue
		}
		out := *b
		matched = append(matched, &out)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, page, pageSize), total, nil
}

func (s *MemoryStore) ListMedicines(status models.MedicineStatus, page, pageSize int) ([]*models.MedicineBatch, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.MedicineBatch, 0, len(s.medicines))
	for _, b := range s.medicines {
		if status != "" && b.Status != status {
			continue
		}
		out := *b
		matched = append(matched, &out)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, page, pageSize), total, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *MemoryStore) SetRawMaterialInTransit(id uint64, transporter common.Address, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.rawMaterials[id]
	if !ok {
		return ErrNotFound
	}
	if batch.Status != models.RawMaterialCreated {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, models.RawMaterialInTransit)
	}
	batch.Status = models.RawMaterialInTransit
	batch.CurrentTransporter = transporter
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetRawMaterialReceived(id uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.rawMaterials[id]
	if !ok {
		return ErrNotFound
	}
	if batch.Status != models.RawMaterialInTransit {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, models.RawMaterialReceived)
	}
	batch.Status = models.RawMaterialReceived
	batch.CurrentTransporter = common.Address{}
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetRawMaterialDestroyed(id uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.rawMaterials[id]
	if !ok {
		return ErrNotFound
	}
	if batch.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, models.RawMaterialDestroyed)
	}
	batch.Status = models.RawMaterialDestroyed
	batch.CurrentTransporter = common.Address{}
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetMedicineInTransit(id uint64, next models.MedicineStatus, transporter, destination common.Address, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.medicines[id]
	if !ok {
		return ErrNotFound
	}
	if !next.InTransit() || !MedicineTransitAllowed(batch.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, next)
	}
	batch.Status = next
	batch.CurrentTransporter = transporter
	batch.CurrentDestination = destination
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetMedicineReceived(id uint64, newOwner common.Address, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.medicines[id]
	if !ok {
		return ErrNotFound
	}
	next, ok := medicineArrivals[batch.Status]
	if !ok {
		return fmt.Errorf("%w: %s is not in transit", ErrInvalidTransition, batch.Status)
	}
	batch.Status = next
	batch.CurrentOwner = newOwner
	batch.CurrentTransporter = common.Address{}
	batch.CurrentDestination = common.Address{}
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetMedicineConsumedOrSold(id uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.medicines[id]
	if !ok {
		return ErrNotFound
	}
	if batch.Status != models.MedicineAtCustomer {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, models.MedicineConsumedOrSold)
	}
	batch.Status = models.MedicineConsumedOrSold
	batch.LastUpdateTime = now
	return nil
}

func (s *MemoryStore) SetMedicineDestroyed(id uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.medicines[id]
	if !ok {
		return ErrNotFound
	}
	if batch.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, batch.Status, models.MedicineDestroyed)
	}
	batch.Status = models.MedicineDestroyed
	batch.CurrentOwner = common.Address{}
	batch.CurrentTransporter = common.Address{}
	batch.CurrentDestination = common.Address{}
	batch.LastUpdateTime = now
	return nil
}
