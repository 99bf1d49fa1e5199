// Package audit implements the per-batch, append-only, keccak-chained
// transaction log. Every accepted lifecycle transition appends exactly one
// entry whose hash commits to the previous entry, making the sequence
// tamper-evident.
package audit

import (
	"encoding/binary"
	"time"

	"pharma-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash is the previous-hash sentinel for the first entry of a chain.
var ZeroHash = common.Hash{}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// EntryHash computes the chained hash of a log entry:
// keccak256(index, actor, involved_party, event_code, lat, lon, timestamp,
// data_hash, previous_log_hash), all integers big-endian.
func EntryHash(e *models.TxnLogEntry) common.Hash {
	buf := make([]byte, 0, 8+common.AddressLength*2+len(e.EventCode)+8*3+common.HashLength*2)
	buf = appendUint64(buf, e.Index)
	buf = append(buf, e.Actor.Bytes()...)
	buf = append(buf, e.InvolvedParty.Bytes()...)
	buf = append(buf, []byte(e.EventCode)...)
	buf = appendUint64(buf, uint64(e.Latitude))
	buf = appendUint64(buf, uint64(e.Longitude))
	buf = appendUint64(buf, uint64(e.Timestamp))
	buf = append(buf, e.DataHash.Bytes()...)
	buf = append(buf, e.PreviousLogHash.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// RawMaterialCreationHash commits to the immutable creation payload of a
// raw material batch without storing it in the log entry.
func RawMaterialCreationHash(description string, quantity uint64, intendedManufacturer common.Address) common.Hash {
	buf := make([]byte, 0, len(description)+8+common.AddressLength)
	buf = append(buf, []byte(description)...)
	buf = appendUint64(buf, quantity)
	buf = append(buf, intendedManufacturer.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// MedicineCreationHash commits to the immutable creation payload of a
// medicine batch, including its raw material references and expiry date.
func MedicineCreationHash(description string, quantity uint64, rawMaterialIDs []uint64, expiry time.Time) common.Hash {
	buf := make([]byte, 0, len(description)+8*(len(rawMaterialIDs)+2))
	buf = append(buf, []byte(description)...)
	buf = appendUint64(buf, quantity)
	for _, id := range rawMaterialIDs {
		buf = appendUint64(buf, id)
	}
	buf = appendUint64(buf, uint64(expiry.Unix()))
	return crypto.Keccak256Hash(buf)
}

// TransferHash commits to the transporter/receiver pair of a transfer leg.
func TransferHash(transporter, receiver common.Address) common.Hash {
	buf := make([]byte, 0, common.AddressLength*2)
	buf = append(buf, transporter.Bytes()...)
	buf = append(buf, receiver.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// ReceiptHash commits to the delivering transporter of a receive action.
func ReceiptHash(transporter common.Address) common.Hash {
	return crypto.Keccak256Hash(transporter.Bytes())
}

// FinalizationHash is the payload hash for terminal actions with no payload.
func FinalizationHash() common.Hash {
	return crypto.Keccak256Hash(nil)
}

// DestructionHash commits to the destroy reason code.
func DestructionHash(reason models.DestroyReason) common.Hash {
	return crypto.Keccak256Hash([]byte(reason))
}
