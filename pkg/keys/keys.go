// Package keys builds and parses the composite byte keys kuiperdb uses to
// lay out documents inside a single ordered keyspace: schema, collection,
// and object-id, packed so that a collection's rows sort contiguously.
package keys

import (
	"strings"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/kv"
)

// Pad is the two-byte separator between path segments of a composite key.
var Pad = []byte("::")

// DefaultSchema and InformationSchema name the two reserved schemas.
// Their numeric tags (spec.md §6) are carried only as non-normative
// placeholders in pkg/catalog; routing here is always by string prefix.
const (
	DefaultSchema          = "default"
	InformationSchema      = "information_schema"
	InformationSchemaTable = "table"
)

// ValidateName rejects schema/collection names that would make the "::"
// separator ambiguous in the composite key.
func ValidateName(kind, name string) error {
	if strings.Contains(name, "::") {
		return kerrors.Value(kind + " name must not contain \"::\": " + name)
	}
	if name == "" {
		return kerrors.Value(kind + " name must not be empty")
	}
	return nil
}

// CollectionPrefix returns lower(schema) || "::" || lower(collection) || "::".
func CollectionPrefix(schema, collection string) kv.Key {
	s := strings.ToLower(schema)
	c := strings.ToLower(collection)

	out := make([]byte, 0, len(s)+len(Pad)+len(c)+len(Pad))
	out = append(out, s...)
	out = append(out, Pad...)
	out = append(out, c...)
	out = append(out, Pad...)
	return kv.Key(out)
}

// RecordKey returns CollectionPrefix(schema, collection) || id.
func RecordKey(schema, collection string, id []byte) kv.Key {
	prefix := CollectionPrefix(schema, collection)
	out := make([]byte, 0, len(prefix)+len(id))
	out = append(out, prefix...)
	out = append(out, id...)
	return kv.Key(out)
}

// PrefixUpperBound returns the smallest key that is strictly greater than
// every key sharing prefix, by incrementing the prefix as a big-endian byte
// string. It returns nil if prefix is all 0xFF bytes (no finite upper bound
// is needed; callers should treat that as "no bound").
func PrefixUpperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)

	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// IDSuffix strips a known collection prefix from key, returning the
// trailing object-id bytes. It assumes key begins with prefix.
func IDSuffix(key kv.Key, prefix kv.Key) []byte {
	if len(key) < len(prefix) {
		return nil
	}
	return key[len(prefix):]
}
