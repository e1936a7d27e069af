// Package document implements the recursive, order-preserving document model
// kuiperdb stores at every record key: a tree of typed fields, keyed by
// string, rooted in a reserved "_id" field.
//
// Binary encoding goes through github.com/hashicorp/go-msgpack's codec
// package. A Document never round-trips through a Go map — every level is an
// ordered slice of fields, and msgpack preserves array/slice order on the
// wire, so field insertion order survives an encode/decode cycle exactly.
package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/go-msgpack/codec"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/objectid"
)

// Kind identifies the type tag carried by every encoded Value.
type Kind byte

const (
	KindNull Kind = iota
	KindObjectID
	KindString
	KindBinary
	KindBool
	KindInt32
	KindInt64
	KindDouble
	KindDecimal
	KindTimestamp
	KindDateTime
	KindDocument
	KindArray
)

// Indexable reports whether a value of this Kind may back a secondary index
// record (spec §4.E). Document and Array are the two excluded kinds.
func (k Kind) Indexable() bool {
	return k != KindDocument && k != KindArray
}

// Timestamp is the BSON-style (seconds, ordinal) pair used to order events
// minted within the same second.
type Timestamp struct {
	Seconds uint32
	Ordinal uint32
}

// Value is a single typed field value. Exactly one of the typed fields
// matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	str  string
	bin  []byte
	b    bool
	i32  int32
	i64  int64
	f64  float64
	ts   Timestamp
	dt   time.Time
	oid  objectid.ObjectID
	doc  *Document
	arr  []Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// FromObjectID wraps an ObjectID.
func FromObjectID(id objectid.ObjectID) Value { return Value{Kind: KindObjectID, oid: id} }

// FromString wraps a string.
func FromString(s string) Value { return Value{Kind: KindString, str: s} }

// FromBinary wraps an opaque byte slice.
func FromBinary(b []byte) Value { return Value{Kind: KindBinary, bin: append([]byte(nil), b...)} }

// FromBool wraps a boolean.
func FromBool(b bool) Value { return Value{Kind: KindBool, b: b} }

// FromInt32 wraps a 32-bit integer.
func FromInt32(v int32) Value { return Value{Kind: KindInt32, i32: v} }

// FromInt64 wraps a 64-bit integer.
func FromInt64(v int64) Value { return Value{Kind: KindInt64, i64: v} }

// FromDouble wraps a 64-bit float.
func FromDouble(v float64) Value { return Value{Kind: KindDouble, f64: v} }

// FromDecimal wraps a decimal, kept as its canonical textual form so no
// precision is lost converting to and from a binary float.
func FromDecimal(text string) Value { return Value{Kind: KindDecimal, str: text} }

// FromTimestamp wraps a (seconds, ordinal) pair.
func FromTimestamp(ts Timestamp) Value { return Value{Kind: KindTimestamp, ts: ts} }

// FromDateTime wraps a wall-clock instant.
func FromDateTime(t time.Time) Value { return Value{Kind: KindDateTime, dt: t.UTC()} }

// FromDocument wraps a nested document.
func FromDocument(d *Document) Value { return Value{Kind: KindDocument, doc: d} }

// FromArray wraps an ordered list of values.
func FromArray(vs []Value) Value { return Value{Kind: KindArray, arr: vs} }

func (v Value) String() string            { return v.str }
func (v Value) Binary() []byte            { return v.bin }
func (v Value) Bool() bool                { return v.b }
func (v Value) Int32() int32              { return v.i32 }
func (v Value) Int64() int64              { return v.i64 }
func (v Value) Double() float64           { return v.f64 }
func (v Value) Decimal() string           { return v.str }
func (v Value) TimestampValue() Timestamp { return v.ts }
func (v Value) DateTime() time.Time       { return v.dt }
func (v Value) ObjectID() objectid.ObjectID { return v.oid }
func (v Value) Document() *Document       { return v.doc }
func (v Value) Array() []Value            { return v.arr }

// Field is one ordered (key, value) pair of a Document.
type Field struct {
	Key   string
	Value Value
}

// Document is an ordered list of fields. Field order is insertion order, and
// survives an Encode/Decode round trip exactly; it is never backed by a Go
// map.
type Document struct {
	fields []Field
	index  map[string]int
}

// New returns an empty document.
func New() *Document {
	return &Document{index: make(map[string]int)}
}

// Set appends a new field, or overwrites the value of an existing one in
// place (preserving its original position).
func (d *Document) Set(key string, v Value) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.fields[i].Value = v
		return
	}
	d.index[key] = len(d.fields)
	d.fields = append(d.fields, Field{Key: key, Value: v})
}

// Get returns the value stored under key and whether it was present.
func (d *Document) Get(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}
	return d.fields[i].Value, true
}

// ID returns the reserved "_id" field, if present.
func (d *Document) ID() (objectid.ObjectID, bool) {
	v, ok := d.Get("_id")
	if !ok || v.Kind != KindObjectID {
		return objectid.ObjectID{}, false
	}
	return v.oid, true
}

// Fields returns the document's fields in insertion order. The returned
// slice must not be mutated.
func (d *Document) Fields() []Field { return d.fields }

// Len returns the number of top-level fields.
func (d *Document) Len() int { return len(d.fields) }

// ToJSON renders the document as a canonical JSON-ready map, the
// projection the front end sends back over the wire (spec.md §6). Field
// order is not preserved by encoding/json's map marshalling; callers that
// need order-stable output should walk Fields() directly instead.
func (d *Document) ToJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(d.fields))
	for _, f := range d.fields {
		out[f.Key] = f.Value.ToJSON()
	}
	return out
}

// ToJSON renders a single value as its canonical JSON-ready representation:
// object-ids as lowercase hex, binary as base64, decimals as their exact
// text, timestamps as {seconds,ordinal}, and date-times as RFC3339Nano.
func (v Value) ToJSON() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindObjectID:
		return v.oid.String()
	case KindString:
		return v.str
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.bin)
	case KindBool:
		return v.b
	case KindInt32:
		return v.i32
	case KindInt64:
		return v.i64
	case KindDouble:
		return v.f64
	case KindDecimal:
		return v.str
	case KindTimestamp:
		return map[string]interface{}{"seconds": v.ts.Seconds, "ordinal": v.ts.Ordinal}
	case KindDateTime:
		return v.dt.Format(time.RFC3339Nano)
	case KindDocument:
		return v.doc.ToJSON()
	case KindArray:
		elems := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			elems[i] = e.ToJSON()
		}
		return elems
	default:
		return nil
	}
}

var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	// WriteExt encodes []byte as msgpack bin rather than str, so byte payloads
	// (object-ids, binary) decode back as []byte while strings, via
	// RawToString, decode as string.
	h.WriteExt = true
	return h
}

// Encode serialises the document to its canonical binary form.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, msgpackHandle)
	if err := enc.Encode(encodeFields(d.fields)); err != nil {
		return nil, kerrors.Value(fmt.Sprintf("document: encode: %v", err))
	}
	return buf.Bytes(), nil
}

// Decode parses a document previously produced by Encode.
func Decode(b []byte) (*Document, error) {
	dec := codec.NewDecoder(bytes.NewReader(b), msgpackHandle)
	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, kerrors.Value(fmt.Sprintf("document: decode: %v", err))
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	doc := New()
	for _, f := range fields {
		doc.Set(f.Key, f.Value)
	}
	return doc, nil
}

// encodeFields renders an ordered field list as a wire-level
// []interface{}{ []interface{}{key, taggedValue}, ... } structure. msgpack
// preserves slice order, so this is what actually keeps field order intact
// across a round trip.
func encodeFields(fields []Field) []interface{} {
	out := make([]interface{}, len(fields))
	for i, f := range fields {
		out[i] = []interface{}{f.Key, encodeValue(f.Value)}
	}
	return out
}

func decodeFields(raw []interface{}) ([]Field, error) {
	out := make([]Field, len(raw))
	for i, r := range raw {
		pair, ok := r.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, kerrors.Value("document: malformed field pair")
		}
		key, ok := pair[0].(string)
		if !ok {
			return nil, kerrors.Value("document: field key is not a string")
		}
		v, err := decodeValue(pair[1])
		if err != nil {
			return nil, err
		}
		out[i] = Field{Key: key, Value: v}
	}
	return out, nil
}

// encodeValue tags every value with its Kind so Decode can reconstruct the
// exact type, since msgpack on its own would otherwise collapse e.g. int32
// and int64 to whatever its own numeric inference picks.
func encodeValue(v Value) []interface{} {
	switch v.Kind {
	case KindNull:
		return []interface{}{byte(KindNull), nil}
	case KindObjectID:
		return []interface{}{byte(KindObjectID), v.oid.Bytes()}
	case KindString:
		return []interface{}{byte(KindString), v.str}
	case KindBinary:
		return []interface{}{byte(KindBinary), v.bin}
	case KindBool:
		return []interface{}{byte(KindBool), v.b}
	case KindInt32:
		return []interface{}{byte(KindInt32), int64(v.i32)}
	case KindInt64:
		return []interface{}{byte(KindInt64), v.i64}
	case KindDouble:
		return []interface{}{byte(KindDouble), v.f64}
	case KindDecimal:
		return []interface{}{byte(KindDecimal), v.str}
	case KindTimestamp:
		return []interface{}{byte(KindTimestamp), []interface{}{int64(v.ts.Seconds), int64(v.ts.Ordinal)}}
	case KindDateTime:
		return []interface{}{byte(KindDateTime), v.dt.UnixMilli()}
	case KindDocument:
		return []interface{}{byte(KindDocument), encodeFields(v.doc.fields)}
	case KindArray:
		elems := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			elems[i] = encodeValue(e)
		}
		return []interface{}{byte(KindArray), elems}
	default:
		panic(fmt.Sprintf("document: unknown kind %d", v.Kind))
	}
}

func decodeValue(raw interface{}) (Value, error) {
	pair, ok := raw.([]interface{})
	if !ok || len(pair) != 2 {
		return Value{}, kerrors.Value("document: malformed tagged value")
	}
	kind, err := asKind(pair[0])
	if err != nil {
		return Value{}, err
	}
	payload := pair[1]

	switch kind {
	case KindNull:
		return Null(), nil
	case KindObjectID:
		b, ok := payload.([]byte)
		if !ok {
			return Value{}, kerrors.Value("document: object-id payload is not bytes")
		}
		id, err := objectid.FromBytes(b)
		if err != nil {
			return Value{}, kerrors.Value(fmt.Sprintf("document: %v", err))
		}
		return FromObjectID(id), nil
	case KindString:
		s, ok := payload.(string)
		if !ok {
			return Value{}, kerrors.Value("document: string payload is not a string")
		}
		return FromString(s), nil
	case KindBinary:
		b, ok := payload.([]byte)
		if !ok {
			return Value{}, kerrors.Value("document: binary payload is not bytes")
		}
		return FromBinary(b), nil
	case KindBool:
		b, ok := payload.(bool)
		if !ok {
			return Value{}, kerrors.Value("document: bool payload is not a bool")
		}
		return FromBool(b), nil
	case KindInt32:
		n, err := asInt64(payload)
		if err != nil {
			return Value{}, err
		}
		return FromInt32(int32(n)), nil
	case KindInt64:
		n, err := asInt64(payload)
		if err != nil {
			return Value{}, err
		}
		return FromInt64(n), nil
	case KindDouble:
		f, ok := payload.(float64)
		if !ok {
			return Value{}, kerrors.Value("document: double payload is not a float64")
		}
		return FromDouble(f), nil
	case KindDecimal:
		s, ok := payload.(string)
		if !ok {
			return Value{}, kerrors.Value("document: decimal payload is not a string")
		}
		return FromDecimal(s), nil
	case KindTimestamp:
		parts, ok := payload.([]interface{})
		if !ok || len(parts) != 2 {
			return Value{}, kerrors.Value("document: malformed timestamp payload")
		}
		sec, err := asInt64(parts[0])
		if err != nil {
			return Value{}, err
		}
		ord, err := asInt64(parts[1])
		if err != nil {
			return Value{}, err
		}
		return FromTimestamp(Timestamp{Seconds: uint32(sec), Ordinal: uint32(ord)}), nil
	case KindDateTime:
		ms, err := asInt64(payload)
		if err != nil {
			return Value{}, err
		}
		return FromDateTime(time.UnixMilli(ms).UTC()), nil
	case KindDocument:
		nested, ok := payload.([]interface{})
		if !ok {
			return Value{}, kerrors.Value("document: nested document payload is not a list")
		}
		fields, err := decodeFields(nested)
		if err != nil {
			return Value{}, err
		}
		doc := New()
		for _, f := range fields {
			doc.Set(f.Key, f.Value)
		}
		return FromDocument(doc), nil
	case KindArray:
		elems, ok := payload.([]interface{})
		if !ok {
			return Value{}, kerrors.Value("document: array payload is not a list")
		}
		vs := make([]Value, len(elems))
		for i, e := range elems {
			v, err := decodeValue(e)
			if err != nil {
				return Value{}, err
			}
			vs[i] = v
		}
		return FromArray(vs), nil
	default:
		return Value{}, kerrors.Value(fmt.Sprintf("document: unknown kind tag %d", kind))
	}
}

func asKind(v interface{}) (Kind, error) {
	switch n := v.(type) {
	case byte:
		return Kind(n), nil
	case int64:
		return Kind(n), nil
	case uint64:
		return Kind(n), nil
	default:
		return 0, kerrors.Value("document: kind tag is not an integer")
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, kerrors.Value("document: expected an integer payload")
	}
}
