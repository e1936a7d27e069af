/*
Package store provides BoltDB-backed transactional storage for every
document and index record kuiperdb holds.

Unlike a resource-per-bucket layout, store keeps one flat "records" bucket
keyed by the composite schema::collection::id layout from pkg/keys, plus one
bucket per registered index:

	┌──────────────────── BOLTDB STORAGE ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Datastore                       │          │
	│  │  - File: <dir>/kuiper.db                     │          │
	│  │  - Format: B+tree with MVCC                  │          │
	│  │  - Transactions: ACID with fsync              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Bucket Structure                 │          │
	│  │  ┌────────────────────────────────────┐     │          │
	│  │  │ records           (schema::coll::id)│     │          │
	│  │  │ index::<name>     (per registered   │     │          │
	│  │  │                    index)            │     │          │
	│  │  └────────────────────────────────────┘     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Transaction                          │          │
	│  │  - Begin(writable) holds bbolt's single      │          │
	│  │    writer lock for its whole lifetime        │          │
	│  │  - Tagged state (active/completed) behind    │          │
	│  │    one mutex, not a nilable field             │          │
	│  │  - Rollback/Commit transition state once     │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Keys and values

Document records are keyed by pkg/keys.RecordKey(schema, collection, id) and
valued by pkg/document's binary encoding. Index records share the same key
space convention but live in their own bucket, keyed by the document id and
carrying the single indexed field's pkg/document-encoded value.

# Concurrency

bbolt allows any number of concurrent read-only transactions but only one
writable transaction at a time; Begin(true) blocks until the previous writer
finishes. There is no optimistic read-set validation: once a writable
Transaction is open, its writes cannot be invalidated by a concurrent writer,
because there isn't one.
*/
package store
