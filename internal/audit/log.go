package audit

import (
	"fmt"
	"sync"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// Log is the append-only transaction log consumed by the lifecycle engine.
// Entries are never mutated or removed after append. History returns an
// empty slice for batches with no entries; callers distinguish "no history"
// from "no batch" via the batch type registry.
type Log interface {
	Append(batchID uint64, actor, involvedParty common.Address, code models.EventCode, lat, lon int64, timestamp int64, dataHash common.Hash) (*models.TxnLogEntry, error)
	History(batchID uint64) ([]models.TxnLogEntry, error)
	LastHash(batchID uint64) (common.Hash, error)
	Length(batchID uint64) (uint64, error)
}

// Verify recomputes the hash chain over an ordered history and returns an
// error at the first broken link. A nil result means the stored fields
// reproduce every entry hash and each entry commits to its predecessor.
func Verify(entries []models.TxnLogEntry) error {
	prev := ZeroHash
	for i := range entries {
		e := &entries[i]
		if e.Index != uint64(i) {
			return fmt.Errorf("entry %d: unexpected index %d", i, e.Index)
		}
		if e.PreviousLogHash != prev {
			return fmt.Errorf("entry %d: previous hash mismatch", i)
		}
		if got := EntryHash(e); got != e.EntryHash {
			return fmt.Errorf("entry %d: stored hash does not match recomputation", i)
		}
		prev = e.EntryHash
	}
	return nil
}

// MemoryLog is an in-process Log guarded by a RWMutex. The last hash per
// batch is tracked separately so appends chain in O(1).
type MemoryLog struct {
	mu       sync.RWMutex
	entries  map[uint64][]models.TxnLogEntry
	lastHash map[uint64]common.Hash
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		entries:  make(map[uint64][]models.TxnLogEntry),
		lastHash: make(map[uint64]common.Hash),
	}
}

// Append creates, hashes, and stores the next entry for batchID.
func (l *MemoryLog) Append(batchID uint64, actor, involvedParty common.Address, code models.EventCode, lat, lon int64, timestamp int64, dataHash common.Hash) (*models.TxnLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, ok := l.lastHash[batchID]
	if !ok {
		prev = ZeroHash
	}
	entry := models.TxnLogEntry{
		BatchID:         batchID,
		Index:           uint64(len(l.entries[batchID])),
		Actor:           actor,
		InvolvedParty:   involvedParty,
		EventCode:       code,
		Latitude:        lat,
		Longitude:       lon,
		Timestamp:       timestamp,
		DataHash:        dataHash,
		PreviousLogHash: prev,
	}
	entry.EntryHash = EntryHash(&entry)

	l.entries[batchID] = append(l.entries[batchID], entry)
	l.lastHash[batchID] = entry.EntryHash
	return &entry, nil
}

// History returns a copy of the ordered entries for batchID.
func (l *MemoryLog) History(batchID uint64) ([]models.TxnLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.entries[batchID]
	out := make([]models.TxnLogEntry, len(src))
	copy(out, src)
	return out, nil
}

// LastHash returns the hash of the most recent entry, or ZeroHash if none.
func (l *MemoryLog) LastHash(batchID uint64) (common.Hash, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if h, ok := l.lastHash[batchID]; ok {
		return h, nil
	}
	return ZeroHash, nil
}

// Length returns the number of entries recorded for batchID.
func (l *MemoryLog) Length(batchID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.entries[batchID])), nil
}
