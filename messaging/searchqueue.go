package messaging

import (
	"encoding/binary"
	"fmt"

	set3 "github.com/TomTonic/Set3"

	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
)

const searchQueueRecordSize = 20

// SearchUpdateRecordType is the wType field selecting a search-update
// record's payload shape. 15 distinct shapes are defined by the format;
// this reader treats the payload as opaque bytes and leaves shape
// dispatch to the caller, since the core has no write path to generate
// them and therefore no need to decode every shape structurally (§9).
type SearchUpdateRecordType uint16

// SearchUpdateRecordTypeNull is the sentinel marking an empty slot.
const SearchUpdateRecordTypeNull SearchUpdateRecordType = 0

// SearchUpdateRecord is one fixed 20-byte record of the search-update
// queue: a 2-byte flags field, a 2-byte type selecting the payload's
// shape, and 16 bytes of type-dependent payload (almost always NIDs and
// reserved words per §3).
type SearchUpdateRecord struct {
	Flags   uint16
	Type    SearchUpdateRecordType
	Payload [16]byte
}

// SearchUpdateQueue decodes the ordered change-record queue attached to
// NIDSearchManagementQueue. There is no specified write path (§9); this
// is a read-only cursor over records already appended to the node.
type SearchUpdateQueue struct {
	records  []SearchUpdateRecord
	consumed int
}

// OpenSearchUpdateQueue decodes the fixed-record stream backing the
// store-wide search-update queue node.
func OpenSearchUpdateQueue(nodes *node.Store) (*SearchUpdateQueue, error) {
	n, err := nodes.Open(ndb.NIDSearchManagementQueue)
	if err != nil {
		return nil, fmt.Errorf("open search queue node: %w", err)
	}

	if len(n.Data)%searchQueueRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSearchQueueOffset, len(n.Data))
	}

	// ParentNID is the node B-tree entry's parent-folder field, reused
	// by this node to carry a consumed-byte cursor instead.
	consumed := int(n.Entry.ParentNID)
	if consumed < 0 || consumed%searchQueueRecordSize != 0 || consumed > len(n.Data) {
		return nil, fmt.Errorf("%w: cursor %d", ErrInvalidSearchQueueOffset, consumed)
	}

	var records []SearchUpdateRecord
	for off := 0; off+searchQueueRecordSize <= len(n.Data); off += searchQueueRecordSize {
		rec := n.Data[off : off+searchQueueRecordSize]
		records = append(records, SearchUpdateRecord{
			Flags:   binary.LittleEndian.Uint16(rec[0:2]),
			Type:    SearchUpdateRecordType(binary.LittleEndian.Uint16(rec[2:4])),
			Payload: [16]byte(rec[4:20]),
		})
	}

	return &SearchUpdateQueue{records: records, consumed: consumed}, nil
}

// Len returns the total number of records physically present, including
// already-consumed ones.
func (q *SearchUpdateQueue) Len() int { return len(q.records) }

// Pending returns the records not yet handed out, in the queue's
// tail-first consumption order (the most recently appended record
// first): the order a consumer draining this queue would actually see
// them in. Since consumption starts at the tail, the consumed cursor
// covers the last records in the stream.
func (q *SearchUpdateQueue) Pending() []SearchUpdateRecord {
	handedOut := q.consumed / searchQueueRecordSize
	live := q.records[:len(q.records)-handedOut]
	out := make([]SearchUpdateRecord, len(live))
	for i, r := range live {
		out[len(live)-1-i] = r
	}
	return out
}

// PendingTargets returns the distinct NIDs named by every pending
// record's payload (the first 4 bytes, present in all 15 documented
// record shapes), deduplicated — a caller invalidating cached folder or
// message state from this queue only needs to act on each target once.
func (q *SearchUpdateQueue) PendingTargets() []ndb.NodeID {
	seen := set3.EmptyWithCapacity[ndb.NodeID](len(q.records))
	var out []ndb.NodeID
	for _, r := range q.Pending() {
		if r.Type == SearchUpdateRecordTypeNull {
			continue
		}
		nid := ndb.NodeID(binary.LittleEndian.Uint32(r.Payload[0:4]))
		if seen.Contains(nid) {
			continue
		}
		seen.Add(nid)
		out = append(out, nid)
	}
	return out
}
