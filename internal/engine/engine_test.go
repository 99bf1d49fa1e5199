package engine

import (
	"io"
	"sync"
	"testing"
	"time"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/models"
	"pharma-backend/internal/rbac"
	"pharma-backend/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner        = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	supplier     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	transporter  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	manufacturer = common.HexToAddress("0x3333333333333333333333333333333333333333")
	wholesaler   = common.HexToAddress("0x4444444444444444444444444444444444444444")
	distributor  = common.HexToAddress("0x5555555555555555555555555555555555555555")
	customer     = common.HexToAddress("0x6666666666666666666666666666666666666666")
	outsider     = common.HexToAddress("0x7777777777777777777777777777777777777777")
)

type capturePublisher struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func (p *capturePublisher) PublishTransition(evt TransitionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *capturePublisher) last() TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type testEnv struct {
	engine *Engine
	roles  *rbac.Service
	pub    *capturePublisher
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	roles := rbac.NewService(rbac.NewMemoryStore(owner), logger)
	require.NoError(t, roles.GrantRole(owner, models.RoleSupplier, supplier))
	require.NoError(t, roles.GrantRole(owner, models.RoleTransporter, transporter))
	require.NoError(t, roles.GrantRole(owner, models.RoleManufacturer, manufacturer))
	require.NoError(t, roles.GrantRole(owner, models.RoleWholesaler, wholesaler))
	require.NoError(t, roles.GrantRole(owner, models.RoleDistributor, distributor))

	pub := &capturePublisher{}
	env := &testEnv{
		roles: roles,
		pub:   pub,
		clock: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	env.engine = New(store.NewMemoryStore(), audit.NewMemoryLog(), roles, logger, pub)
	env.engine.now = func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}
	return env
}

func (env *testEnv) expiry() time.Time {
	return env.clock.AddDate(1, 0, 0)
}

// createRawMaterial makes a fresh Created batch owned by the supplier.
func (env *testEnv) createRawMaterial(t *testing.T) uint64 {
	t.Helper()
	id, err := env.engine.CreateRawMaterial(supplier, "active ingredient", 100, manufacturer, 52520000, 13405000)
	require.NoError(t, err)
	return id
}

// receivedRawMaterial runs a batch through the full supplier -> manufacturer
// leg so it is usable as a medicine input.
func (env *testEnv) receivedRawMaterial(t *testing.T) uint64 {
	t.Helper()
	id := env.createRawMaterial(t)
	_, err := env.engine.InitiateTransfer(supplier, id, transporter, manufacturer, 0, 0)
	require.NoError(t, err)
	_, err = env.engine.ReceivePackage(manufacturer, id, 0, 0)
	require.NoError(t, err)
	return id
}

func (env *testEnv) createMedicine(t *testing.T) uint64 {
	t.Helper()
	rm := env.receivedRawMaterial(t)
	id, err := env.engine.CreateMedicine(manufacturer, "tablets 500mg", 50, []uint64{rm}, env.expiry(), 0, 0)
	require.NoError(t, err)
	return id
}

// medicineAt advances a fresh medicine batch to the given stage.
func (env *testEnv) medicineAt(t *testing.T, stage models.MedicineStatus) uint64 {
	t.Helper()
	id := env.createMedicine(t)
	steps := []struct {
		at       models.MedicineStatus
		caller   common.Address
		receiver common.Address
	}{
		{models.MedicineInTransitToW, manufacturer, wholesaler},
		{models.MedicineAtWholesaler, wholesaler, wholesaler},
		{models.MedicineInTransitToD, wholesaler, distributor},
		{models.MedicineAtDistributor, distributor, distributor},
		{models.MedicineInTransitToC, distributor, customer},
		{models.MedicineAtCustomer, customer, customer},
	}
	for _, step := range steps {
		if stage == models.MedicineCreated {
			return id
		}
		if step.at.InTransit() {
			_, err := env.engine.InitiateTransfer(step.caller, id, transporter, step.receiver, 0, 0)
			require.NoError(t, err)
		} else {
			_, err := env.engine.ReceivePackage(step.caller, id, 0, 0)
			require.NoError(t, err)
		}
		if step.at == stage {
			return id
		}
	}
	t.Fatalf("unreachable stage %s", stage)
	return 0
}

func (env *testEnv) auditLength(t *testing.T, id uint64) int {
	t.Helper()
	history, err := env.engine.GetHistory(id)
	require.NoError(t, err)
	return len(history)
}

func TestCreateRawMaterial(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.CreateRawMaterial(supplier, "active ingredient", 100, manufacturer, 52520000, 13405000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	batch, err := env.engine.GetRawMaterialDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialCreated, batch.Status)
	assert.Equal(t, supplier, batch.Supplier)
	assert.Equal(t, manufacturer, batch.IntendedManufacturer)

	history, err := env.engine.GetHistory(id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventRawMaterialCreated, history[0].EventCode)
	assert.Equal(t, supplier, history[0].Actor)
	assert.Equal(t, manufacturer, history[0].InvolvedParty)
	assert.Equal(t, int64(52520000), history[0].Latitude)

	require.Equal(t, 1, env.pub.count())
	evt := env.pub.last()
	assert.Equal(t, id, evt.BatchID)
	assert.Equal(t, models.BatchTypeRawMaterial, evt.BatchType)
	assert.Equal(t, models.EventRawMaterialCreated, evt.EventCode)
}

func TestCreateRawMaterialValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CreateRawMaterial(outsider, "lot", 100, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)

	_, err = env.engine.CreateRawMaterial(supplier, "lot", 0, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = env.engine.CreateRawMaterial(supplier, "lot", 100, common.Address{}, 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = env.engine.CreateRawMaterial(supplier, "lot", 100, outsider, 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)

	// None of the rejections registered a batch or published an event.
	_, total, err := env.engine.ListRawMaterials("", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, env.pub.count())
}

func TestCreateMedicine(t *testing.T) {
	env := newTestEnv(t)
	rm1 := env.receivedRawMaterial(t)
	rm2 := env.receivedRawMaterial(t)

	id, err := env.engine.CreateMedicine(manufacturer, "tablets", 50, []uint64{rm1, rm2}, env.expiry(), 0, 0)
	require.NoError(t, err)

	batch, err := env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineCreated, batch.Status)
	assert.Equal(t, manufacturer, batch.CurrentOwner)
	assert.Equal(t, []uint64{rm1, rm2}, batch.RawMaterialIDs)

	history, err := env.engine.GetHistory(id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventMedicineCreated, history[0].EventCode)
}

func TestCreateMedicineValidation(t *testing.T) {
	env := newTestEnv(t)
	received := env.receivedRawMaterial(t)
	pending := env.createRawMaterial(t)

	_, err := env.engine.CreateMedicine(outsider, "tablets", 50, []uint64{received}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)

	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 50, nil, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 0, []uint64{received}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 50, []uint64{received}, env.clock.Add(-time.Hour), 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	// Referenced batch must exist and be a raw material.
	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 50, []uint64{999}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrRawMaterialValidation)

	med := env.createMedicine(t)
	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 50, []uint64{med}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrRawMaterialValidation)

	// Referenced batch must already be received.
	_, err = env.engine.CreateMedicine(manufacturer, "tablets", 50, []uint64{pending}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrRawMaterialValidation)

	// Referenced batch must be intended for the caller.
	require.NoError(t, env.roles.GrantRole(owner, models.RoleManufacturer, outsider))
	_, err = env.engine.CreateMedicine(outsider, "tablets", 50, []uint64{received}, env.expiry(), 0, 0)
	assert.ErrorIs(t, err, ErrRawMaterialValidation)
}

func TestRawMaterialLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRawMaterial(t)

	entry, err := env.engine.InitiateTransfer(supplier, id, transporter, manufacturer, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.EventRawMaterialInTransit, entry.EventCode)
	assert.Equal(t, transporter, entry.InvolvedParty)

	batch, err := env.engine.GetRawMaterialDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialInTransit, batch.Status)
	assert.Equal(t, transporter, batch.CurrentTransporter)

	entry, err = env.engine.ReceivePackage(manufacturer, id, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, models.EventRawMaterialReceived, entry.EventCode)
	assert.Equal(t, transporter, entry.InvolvedParty)

	batch, err = env.engine.GetRawMaterialDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialReceived, batch.Status)
	assert.Equal(t, common.Address{}, batch.CurrentTransporter)

	assert.Equal(t, 3, env.auditLength(t, id))
	assert.NoError(t, env.engine.VerifyChain(id))
}

func TestRawMaterialTransferValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRawMaterial(t)

	_, err := env.engine.InitiateTransfer(supplier, id, common.Address{}, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = env.engine.InitiateTransfer(supplier, id, outsider, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)

	_, err = env.engine.InitiateTransfer(outsider, id, transporter, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	_, err = env.engine.InitiateTransfer(supplier, id, transporter, wholesaler, 0, 0)
	assert.ErrorIs(t, err, ErrReceiverMismatch)

	_, err = env.engine.InitiateTransfer(supplier, 999, transporter, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrBatchTypeUnknown)

	// Nothing above moved the batch or touched its audit trail.
	batch, err := env.engine.GetRawMaterialDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialCreated, batch.Status)
	assert.Equal(t, 1, env.auditLength(t, id))

	_, err = env.engine.InitiateTransfer(supplier, id, transporter, manufacturer, 0, 0)
	require.NoError(t, err)
	_, err = env.engine.InitiateTransfer(supplier, id, transporter, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStateForAction)
}

func TestRawMaterialReceiveValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRawMaterial(t)

	// Destination check precedes the status check.
	_, err := env.engine.ReceivePackage(outsider, id, 0, 0)
	assert.ErrorIs(t, err, ErrReceiverMismatch)

	_, err = env.engine.ReceivePackage(manufacturer, id, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStateForAction)

	_, err = env.engine.InitiateTransfer(supplier, id, transporter, manufacturer, 0, 0)
	require.NoError(t, err)
	_, err = env.engine.ReceivePackage(manufacturer, id, 0, 0)
	require.NoError(t, err)

	_, err = env.engine.ReceivePackage(manufacturer, id, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStateForAction)
}

func TestMedicineLifecycleViaWholesaler(t *testing.T) {
	env := newTestEnv(t)
	id := env.medicineAt(t, models.MedicineAtCustomer)

	entry, err := env.engine.FinalizeMedicine(customer, id, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.EventMedicineFinalized, entry.EventCode)

	batch, err := env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineConsumedOrSold, batch.Status)

	// create + three transfer/receive pairs + finalize
	assert.Equal(t, 8, env.auditLength(t, id))
	assert.NoError(t, env.engine.VerifyChain(id))
}

func TestMedicineDirectToDistributor(t *testing.T) {
	env := newTestEnv(t)
	id := env.createMedicine(t)

	_, err := env.engine.InitiateTransfer(manufacturer, id, transporter, distributor, 0, 0)
	require.NoError(t, err)

	batch, err := env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineInTransitToD, batch.Status)
	assert.Equal(t, distributor, batch.CurrentDestination)

	_, err = env.engine.ReceivePackage(distributor, id, 0, 0)
	require.NoError(t, err)

	batch, err = env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineAtDistributor, batch.Status)
	assert.Equal(t, distributor, batch.CurrentOwner)
}

func TestMedicineTransferValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.createMedicine(t)

	// Receiver must open a legal leg from the current stage.
	_, err := env.engine.InitiateTransfer(manufacturer, id, transporter, customer, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidReceiverRole)

	_, err = env.engine.InitiateTransfer(outsider, id, transporter, wholesaler, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	atWholesaler := env.medicineAt(t, models.MedicineAtWholesaler)
	_, err = env.engine.InitiateTransfer(wholesaler, atWholesaler, transporter, manufacturer, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidReceiverRole)

	inTransit := env.medicineAt(t, models.MedicineInTransitToW)
	_, err = env.engine.InitiateTransfer(manufacturer, inTransit, transporter, wholesaler, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStateForAction)
}

func TestMedicineTransferRequiresStageRole(t *testing.T) {
	env := newTestEnv(t)
	id := env.createMedicine(t)

	// Owner without the manufacturer role anymore cannot ship.
	require.NoError(t, env.roles.RevokeRole(owner, models.RoleManufacturer, manufacturer))
	_, err := env.engine.InitiateTransfer(manufacturer, id, transporter, wholesaler, 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)
}

func TestMedicineReceiveValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.medicineAt(t, models.MedicineInTransitToW)

	// Destination check precedes everything else.
	_, err := env.engine.ReceivePackage(outsider, id, 0, 0)
	assert.ErrorIs(t, err, ErrReceiverMismatch)

	// The recorded destination still needs the stage role at receive time.
	require.NoError(t, env.roles.RevokeRole(owner, models.RoleWholesaler, wholesaler))
	_, err = env.engine.ReceivePackage(wholesaler, id, 0, 0)
	assert.ErrorIs(t, err, ErrRoleCheckFailed)
}

func TestFinalizeMedicine(t *testing.T) {
	env := newTestEnv(t)

	atDistributor := env.medicineAt(t, models.MedicineAtDistributor)
	_, err := env.engine.FinalizeMedicine(distributor, atDistributor, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidStateForAction)

	id := env.medicineAt(t, models.MedicineAtCustomer)
	_, err = env.engine.FinalizeMedicine(outsider, id, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	rm := env.createRawMaterial(t)
	_, err = env.engine.FinalizeMedicine(supplier, rm, 0, 0)
	assert.ErrorIs(t, err, ErrBatchTypeUnknown)

	_, err = env.engine.FinalizeMedicine(customer, id, 0, 0)
	require.NoError(t, err)

	// Terminal state reported before ownership on repeat attempts.
	_, err = env.engine.FinalizeMedicine(outsider, id, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyDestroyedOrFinalized)
}

func TestDestroyRawMaterial(t *testing.T) {
	env := newTestEnv(t)

	id := env.createRawMaterial(t)
	_, err := env.engine.MarkDestroyed(supplier, id, models.DestroyReason("lost"), 0, 0)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = env.engine.MarkDestroyed(outsider, id, models.DestroyReasonDamaged, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	entry, err := env.engine.MarkDestroyed(supplier, id, models.DestroyReasonDamaged, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.EventRawMaterialDestroyed, entry.EventCode)

	_, err = env.engine.MarkDestroyed(supplier, id, models.DestroyReasonDamaged, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyDestroyed)

	// Admin may destroy a batch it does not own, from mid-transit too.
	inTransit := env.createRawMaterial(t)
	_, err = env.engine.InitiateTransfer(supplier, inTransit, transporter, manufacturer, 0, 0)
	require.NoError(t, err)
	_, err = env.engine.MarkDestroyed(owner, inTransit, models.DestroyReasonRecalled, 0, 0)
	require.NoError(t, err)

	batch, err := env.engine.GetRawMaterialDetails(inTransit)
	require.NoError(t, err)
	assert.Equal(t, models.RawMaterialDestroyed, batch.Status)
	assert.NoError(t, env.engine.VerifyChain(inTransit))
}

func TestDestroyMedicine(t *testing.T) {
	env := newTestEnv(t)

	id := env.medicineAt(t, models.MedicineInTransitToD)
	_, err := env.engine.MarkDestroyed(outsider, id, models.DestroyReasonRecalled, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	// Mid-transit the wholesaler still owns the batch.
	entry, err := env.engine.MarkDestroyed(wholesaler, id, models.DestroyReasonRecalled, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.EventMedicineDestroyed, entry.EventCode)

	// Authorization is checked before the terminal guard.
	_, err = env.engine.MarkDestroyed(outsider, id, models.DestroyReasonRecalled, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
	_, err = env.engine.MarkDestroyed(owner, id, models.DestroyReasonRecalled, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyDestroyedOrFinalized)

	finalized := env.medicineAt(t, models.MedicineAtCustomer)
	_, err = env.engine.FinalizeMedicine(customer, finalized, 0, 0)
	require.NoError(t, err)
	_, err = env.engine.MarkDestroyed(owner, finalized, models.DestroyReasonExpired, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyDestroyedOrFinalized)

	_, err = env.engine.MarkDestroyed(owner, 999, models.DestroyReasonExpired, 0, 0)
	assert.ErrorIs(t, err, ErrBatchTypeUnknown)
}

func TestRejectionLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	id := env.createMedicine(t)
	before := env.pub.count()

	_, err := env.engine.InitiateTransfer(outsider, id, transporter, wholesaler, 0, 0)
	require.Error(t, err)

	batch, err := env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineCreated, batch.Status)
	assert.Equal(t, 1, env.auditLength(t, id))
	assert.Equal(t, before, env.pub.count())
}

func TestConcurrentReceiveAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	id := env.medicineAt(t, models.MedicineInTransitToC)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.ReceivePackage(customer, id, 0, 0)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			// The winner clears the recorded destination, so losers fail
			// the destination check.
			assert.ErrorIs(t, err, ErrReceiverMismatch)
		}
	}
	assert.Equal(t, 1, succeeded)

	batch, err := env.engine.GetMedicineDetails(id)
	require.NoError(t, err)
	assert.Equal(t, models.MedicineAtCustomer, batch.Status)
	// Exactly one receive entry on top of the six prior transitions.
	assert.Equal(t, 7, env.auditLength(t, id))
	assert.NoError(t, env.engine.VerifyChain(id))
}

func TestVerifyChainUnknownBatch(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.engine.VerifyChain(42), ErrNotFound)
}

func TestQueries(t *testing.T) {
	env := newTestEnv(t)
	rm := env.createRawMaterial(t)
	med := env.createMedicine(t)

	typ, err := env.engine.GetBatchType(rm)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeRawMaterial, typ)

	typ, err = env.engine.GetBatchType(med)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeMedicine, typ)

	typ, err = env.engine.GetBatchType(999)
	require.NoError(t, err)
	assert.Equal(t, models.BatchTypeNone, typ)

	_, err = env.engine.GetRawMaterialDetails(999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.engine.GetMedicineDetails(999)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := env.engine.GetHistory(999)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestErrorClass(t *testing.T) {
	assert.Equal(t, "role_check_failed", ErrorClass(ErrRoleCheckFailed))
	assert.Equal(t, "receiver_mismatch", ErrorClass(ErrReceiverMismatch))
	assert.Equal(t, "internal", ErrorClass(io.ErrUnexpectedEOF))
}
