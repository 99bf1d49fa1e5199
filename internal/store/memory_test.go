package store

import (
	"testing"
	"time"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	supplier     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	manufacturer = common.HexToAddress("0x2222222222222222222222222222222222222222")
	transporter  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	wholesaler   = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func now() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func TestSharedIDSequence(t *testing.T) {
	s := NewMemoryStore()

	rm, err := s.CreateRawMaterial("api powder", 100, supplier, manufacturer, now())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rm.ID)

	med, err := s.CreateMedicine("tablets", 50, []uint64{rm.ID}, manufacturer, now().AddDate(1, 0, 0), now())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), med.ID)

	rm2, err := s.CreateRawMaterial("excipient", 40, supplier, manufacturer, now())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rm2.ID)

	typ, err := s.BatchType(1)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeRawMaterial, typ)

	typ, err = s.BatchType(2)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeMedicine, typ)

	typ, err = s.BatchType(99)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeNone, typ)
}

func TestCreateRawMaterialInitialState(t *testing.T) {
	s := NewMemoryStore()

	created, err := s.CreateRawMaterial("api powder", 100, supplier, manufacturer, now())
	require.NoError(t, err)

	got, err := s.GetRawMaterial(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialCreated, got.Status)
	assert.Equal(t, supplier, got.Supplier)
	assert.Equal(t, manufacturer, got.IntendedManufacturer)
	assert.Equal(t, common.Address{}, got.CurrentTransporter)
}

func TestCreateMedicineInitialOwner(t *testing.T) {
	s := NewMemoryStore()

	created, err := s.CreateMedicine("tablets", 50, []uint64{1, 2}, manufacturer, now().AddDate(1, 0, 0), now())
	require.NoError(t, err)

	got, err := s.GetMedicine(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineCreated, got.Status)
	assert.Equal(t, manufacturer, got.CurrentOwner)
	assert.Equal(t, []uint64{1, 2}, got.RawMaterialIDs)
}

func TestGetUnknownBatch(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetRawMaterial(42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetMedicine(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()

	created, err := s.CreateRawMaterial("api powder", 100, supplier, manufacturer, now())
	require.NoError(t, err)

	got, err := s.GetRawMaterial(created.ID)
	require.NoError(t, err)
	got.Status = models.RawMaterialDestroyed

	again, err := s.GetRawMaterial(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialCreated, again.Status)
}

func TestRawMaterialTransitions(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.CreateRawMaterial("api powder", 100, supplier, manufacturer, now())
	require.NoError(t, err)

	require.NoError(t, s.SetRawMaterialInTransit(created.ID, transporter, now()))

	got, err := s.GetRawMaterial(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialInTransit, got.Status)
	assert.Equal(t, transporter, got.CurrentTransporter)

	// Re-shipping an in-transit batch is refused.
	assert.ErrorIs(t, s.SetRawMaterialInTransit(created.ID, transporter, now()), ErrInvalidTransition)

	require.NoError(t, s.SetRawMaterialReceived(created.ID, now()))
	got, err = s.GetRawMaterial(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialReceived, got.Status)
	assert.Equal(t, common.Address{}, got.CurrentTransporter)

	assert.ErrorIs(t, s.SetRawMaterialReceived(created.ID, now()), ErrInvalidTransition)

	require.NoError(t, s.SetRawMaterialDestroyed(created.ID, now()))
	assert.ErrorIs(t, s.SetRawMaterialDestroyed(created.ID, now()), ErrInvalidTransition)
}

func TestMedicineTransitions(t *testing.T) {
	s := NewMemoryStore()
	created, err := s.CreateMedicine("tablets", 50, []uint64{1}, manufacturer, now().AddDate(1, 0, 0), now())
	require.NoError(t, err)

	// Created cannot ship on the customer leg.
	err = s.SetMedicineInTransit(created.ID, models.MedicineInTransitToC, transporter, wholesaler, now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// A non-transit target status is refused outright.
	err = s.SetMedicineInTransit(created.ID, models.MedicineAtWholesaler, transporter, wholesaler, now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.SetMedicineInTransit(created.ID, models.MedicineInTransitToW, transporter, wholesaler, now()))

	got, err := s.GetMedicine(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineInTransitToW, got.Status)
	assert.Equal(t, transporter, got.CurrentTransporter)
	assert.Equal(t, wholesaler, got.CurrentDestination)
	assert.Equal(t, manufacturer, got.CurrentOwner)

	require.NoError(t, s.SetMedicineReceived(created.ID, wholesaler, now()))

	got, err = s.GetMedicine(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineAtWholesaler, got.Status)
	assert.Equal(t, wholesaler, got.CurrentOwner)
	assert.Equal(t, common.Address{}, got.CurrentTransporter)
	assert.Equal(t, common.Address{}, got.CurrentDestination)

	// Receiving twice is refused; the batch is no longer in transit.
	assert.ErrorIs(t, s.SetMedicineReceived(created.ID, wholesaler, now()), ErrInvalidTransition)

	// Finalize is only legal at the customer stage.
	assert.ErrorIs(t, s.SetMedicineConsumedOrSold(created.ID, now()), ErrInvalidTransition)

	require.NoError(t, s.SetMedicineDestroyed(created.ID, now()))
	assert.ErrorIs(t, s.SetMedicineDestroyed(created.ID, now()), ErrInvalidTransition)
	got, err = s.GetMedicine(created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, got.CurrentOwner)
}

func TestMedicineTransitGraph(t *testing.T) {
	assert.True(t, MedicineTransitAllowed(models.MedicineCreated, models.MedicineInTransitToW))
	assert.True(t, MedicineTransitAllowed(models.MedicineCreated, models.MedicineInTransitToD))
	assert.True(t, MedicineTransitAllowed(models.MedicineAtWholesaler, models.MedicineInTransitToD))
	assert.True(t, MedicineTransitAllowed(models.MedicineAtDistributor, models.MedicineInTransitToC))

	assert.False(t, MedicineTransitAllowed(models.MedicineCreated, models.MedicineInTransitToC))
	assert.False(t, MedicineTransitAllowed(models.MedicineAtWholesaler, models.MedicineInTransitToW))
	assert.False(t, MedicineTransitAllowed(models.MedicineAtCustomer, models.MedicineInTransitToC))

	next, ok := MedicineArrivalStatus(models.MedicineInTransitToD)
	assert.True(t, ok)
	assert.Equal(t, models.MedicineAtDistributor, next)

	_, ok = MedicineArrivalStatus(models.MedicineAtDistributor)
	assert.False(t, ok)
}

func TestListPaginationAndFilter(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		_, err := s.CreateRawMaterial("lot", 10, supplier, manufacturer, now())
		require.NoError(t, err)
	}
	require.NoError(t, s.SetRawMaterialInTransit(2, transporter, now()))

	all, total, err := s.ListRawMaterials("", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(1), all[0].ID)
	assert.Equal(t, uint64(3), all[2].ID)

	rest, total, err := s.ListRawMaterials("", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rest, 2)
	assert.Equal(t, uint64(4), rest[0].ID)

	beyond, total, err := s.ListRawMaterials("", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, beyond)

	inTransit, total, err := s.ListRawMaterials(models.RawMaterialInTransit, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inTransit, 1)
	assert.Equal(t, uint64(2), inTransit[0].ID)
}
