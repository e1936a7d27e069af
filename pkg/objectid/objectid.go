// Package objectid generates the 12-byte, byte-lexicographically ordered
// identifiers kuiperdb uses as the trailing component of every record key.
//
// The layout follows the well-known 4+5+3 split (seconds-since-epoch,
// process-unique random, monotonic counter) so that ids minted later in
// the same process sort after ids minted earlier, and ids from different
// processes very rarely collide.
package objectid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Size is the fixed length of an ObjectID in bytes.
const Size = 12

// ObjectID is a 12-byte monotonic-ish identifier.
type ObjectID [Size]byte

var (
	processUnique = processUniqueBytes()
	counter       = randomCounterStart()
)

// processUniqueBytes derives a 5-byte value unique to this process using a
// UUIDv4 as the entropy source, the same way token.go sources randomness
// for join tokens.
func processUniqueBytes() [5]byte {
	var b [5]byte
	id := uuid.New()
	copy(b[:], id[:5])
	return b
}

func randomCounterStart() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b[:]) & 0x00FFFFFF
}

// New mints a fresh ObjectID.
func New() ObjectID {
	var id ObjectID

	binary.BigEndian.PutUint32(id[0:4], uint32(time.Now().Unix()))
	copy(id[4:9], processUnique[:])

	c := atomic.AddUint32(&counter, 1) & 0x00FFFFFF
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)

	return id
}

// FromBytes interprets a 12-byte slice as an ObjectID.
func FromBytes(b []byte) (ObjectID, error) {
	var id ObjectID
	if len(b) != Size {
		return id, fmt.Errorf("objectid: want %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns the id's bytes.
func (id ObjectID) Bytes() []byte { return id[:] }

// String renders the id as lowercase hex.
func (id ObjectID) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the zero value.
func (id ObjectID) IsZero() bool { return id == ObjectID{} }

// Timestamp returns the embedded creation time, truncated to the second.
func (id ObjectID) Timestamp() time.Time {
	return time.Unix(int64(binary.BigEndian.Uint32(id[0:4])), 0).UTC()
}
