package messaging

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/pstkit/pst/internal/ndb"
)

// entryIDSize is the fixed wire size of an EntryID: a 4-byte flags
// field (always zero on disk), a 16-byte provider UID matching the
// owning store's record key, and a 4-byte NID.
const entryIDSize = 24

// EntryID is the opaque 24-byte token a folder or message hands out to
// identify itself: a provider UID that must match the owning store's
// PidTagRecordKey, plus the object's NID. Store.OpenFolder and
// Store.OpenMessage reject an EntryID whose provider UID belongs to a
// different store.
type EntryID struct {
	ProviderUID uuid.UUID
	NID         ndb.NodeID
}

// ParseEntryID decodes a 24-byte EntryID token.
func ParseEntryID(raw []byte) (EntryID, error) {
	if len(raw) != entryIDSize {
		return EntryID{}, fmt.Errorf("%w: %d bytes", ErrInvalidEntryID, len(raw))
	}
	// rgbFlags[4] is reserved and always zero.
	id, err := uuid.FromBytes(reorderGUID(raw[4:20]))
	if err != nil {
		return EntryID{}, fmt.Errorf("%w: provider uid: %v", ErrInvalidEntryID, err)
	}
	nid := ndb.NodeID(binary.LittleEndian.Uint32(raw[20:24]))
	return EntryID{ProviderUID: id, NID: nid}, nil
}

// Bytes encodes e back to its 24-byte wire form.
func (e EntryID) Bytes() []byte {
	out := make([]byte, entryIDSize)
	guidBytes, _ := e.ProviderUID.MarshalBinary()
	copy(out[4:20], reorderGUID(guidBytes))
	binary.LittleEndian.PutUint32(out[20:24], uint32(e.NID))
	return out
}
