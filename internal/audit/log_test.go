package audit

import (
	"testing"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	actorA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	actorB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestAppendChainsEntries(t *testing.T) {
	log := NewMemoryLog()

	first, err := log.Append(1, actorA, actorB, models.EventRawMaterialCreated, 52520000, 13405000, 1700000000, RawMaterialCreationHash("paracetamol base", 100, actorB))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first.Index)
	assert.Equal(t, ZeroHash, first.PreviousLogHash)
	assert.Equal(t, EntryHash(first), first.EntryHash)

	second, err := log.Append(1, actorA, actorB, models.EventRawMaterialInTransit, 52520000, 13405000, 1700000100, TransferHash(actorB, actorA))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.Index)
	assert.Equal(t, first.EntryHash, second.PreviousLogHash)

	length, err := log.Length(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), length)

	last, err := log.LastHash(1)
	require.NoError(t, err)
	assert.Equal(t, second.EntryHash, last)
}

func TestChainsAreIndependentPerBatch(t *testing.T) {
	log := NewMemoryLog()

	_, err := log.Append(1, actorA, actorB, models.EventRawMaterialCreated, 0, 0, 1700000000, FinalizationHash())
	require.NoError(t, err)
	entry, err := log.Append(2, actorB, common.Address{}, models.EventMedicineCreated, 0, 0, 1700000000, FinalizationHash())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), entry.Index)
	assert.Equal(t, ZeroHash, entry.PreviousLogHash)

	length, err := log.Length(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), length)
}

func TestLastHashEmptyChain(t *testing.T) {
	log := NewMemoryLog()

	last, err := log.LastHash(99)
	require.NoError(t, err)
	assert.Equal(t, ZeroHash, last)

	history, err := log.History(99)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestVerifyAcceptsIntactChain(t *testing.T) {
	log := NewMemoryLog()
	for i := int64(0); i < 5; i++ {
		_, err := log.Append(7, actorA, actorB, models.EventMedicineTransferStart, i, -i, 1700000000+i, TransferHash(actorA, actorB))
		require.NoError(t, err)
	}

	history, err := log.History(7)
	require.NoError(t, err)
	assert.NoError(t, Verify(history))
}

func TestVerifyDetectsFieldTampering(t *testing.T) {
	log := NewMemoryLog()
	_, err := log.Append(7, actorA, actorB, models.EventMedicineReceived, 10, 20, 1700000000, ReceiptHash(actorB))
	require.NoError(t, err)
	_, err = log.Append(7, actorA, actorB, models.EventMedicineFinalized, 10, 20, 1700000100, FinalizationHash())
	require.NoError(t, err)

	history, err := log.History(7)
	require.NoError(t, err)

	history[0].Latitude = 999
	assert.Error(t, Verify(history))
}

func TestVerifyDetectsBrokenLink(t *testing.T) {
	log := NewMemoryLog()
	_, err := log.Append(7, actorA, actorB, models.EventMedicineReceived, 0, 0, 1700000000, ReceiptHash(actorB))
	require.NoError(t, err)
	_, err = log.Append(7, actorA, actorB, models.EventMedicineFinalized, 0, 0, 1700000100, FinalizationHash())
	require.NoError(t, err)

	history, err := log.History(7)
	require.NoError(t, err)

	// Rewrite the first entry consistently with itself; the second entry's
	// previous-hash pointer no longer matches.
	history[0].Timestamp = 1690000000
	history[0].EntryHash = EntryHash(&history[0])
	assert.Error(t, Verify(history))
}

func TestVerifyDetectsIndexGap(t *testing.T) {
	log := NewMemoryLog()
	_, err := log.Append(7, actorA, actorB, models.EventMedicineReceived, 0, 0, 1700000000, ReceiptHash(actorB))
	require.NoError(t, err)

	history, err := log.History(7)
	require.NoError(t, err)
	history[0].Index = 3
	assert.Error(t, Verify(history))
}

func TestEntryHashCommitsToEveryField(t *testing.T) {
	base := models.TxnLogEntry{
		BatchID:       1,
		Index:         4,
		Actor:         actorA,
		InvolvedParty: actorB,
		EventCode:     models.EventRawMaterialReceived,
		Latitude:      -33868800,
		Longitude:     151209300,
		Timestamp:     1700000000,
		DataHash:      ReceiptHash(actorB),
	}
	baseHash := EntryHash(&base)

	mutated := base
	mutated.Longitude++
	assert.NotEqual(t, baseHash, EntryHash(&mutated))

	mutated = base
	mutated.EventCode = models.EventRawMaterialDestroyed
	assert.NotEqual(t, baseHash, EntryHash(&mutated))

	mutated = base
	mutated.PreviousLogHash = common.HexToHash("0x01")
	assert.NotEqual(t, baseHash, EntryHash(&mutated))
}
