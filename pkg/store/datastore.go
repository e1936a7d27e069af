// Package store implements kuiperdb's transactional KV façade: the single
// ordered keyspace every document and index record lives in, opened once per
// process and shared across every schema and collection.
//
// It wraps go.etcd.io/bbolt, the same embedded engine the teacher used for
// its resource stores, but in place of one bucket per resource type it keeps
// one flat "records" bucket keyed by pkg/keys's composite
// schema::collection::id layout, plus one bucket per registered index —
// bbolt buckets standing in for the column families the design this is
// grounded on (RocksDB's OptimisticTransactionDB) uses for the same purpose.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/metrics"
)

// recordsBucket holds every document record, keyed by the composite
// schema::collection::id key from pkg/keys. Index buckets are created and
// named on demand by AddIndex.
var recordsBucket = []byte("records")

// Datastore is the single open handle to a kuiperdb data directory.
type Datastore struct {
	db *bolt.DB
}

// Open opens (creating dir and the file if necessary) the datastore file at
// dir/kuiper.db and ensures the records bucket exists.
func Open(dir string) (*Datastore, error) {
	path := filepath.Join(dir, "kuiper.db")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, kerrors.Txf(fmt.Errorf("create datastore directory %s: %w", dir, err))
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, kerrors.Txf(fmt.Errorf("open datastore %s: %w", path, err))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kerrors.Txf(fmt.Errorf("create records bucket: %w", err))
	}

	log.Info(fmt.Sprintf("datastore opened at %s", path))
	ds := &Datastore{db: db}
	metrics.IndexesOpen.Set(float64(len(ds.Indexes())))
	return ds, nil
}

// Close releases the underlying database file.
func (d *Datastore) Close() error {
	if err := d.db.Close(); err != nil {
		return kerrors.Txf(err)
	}
	log.Info("datastore closed")
	return nil
}

// indexBucketPrefix marks a bbolt bucket as backing a named index, as
// opposed to the single recordsBucket.
const indexBucketPrefix = "index::"

// indexBucketName derives the bbolt bucket name backing a named index.
func indexBucketName(index string) []byte {
	return []byte(indexBucketPrefix + index)
}

// AddIndex registers a new index, creating its backing bucket. It is a
// no-op if the index already exists.
func (d *Datastore) AddIndex(index string) error {
	added := false
	err := d.db.Update(func(tx *bolt.Tx) error {
		b := indexBucketName(index)
		if tx.Bucket(b) != nil {
			return nil
		}
		added = true
		_, err := tx.CreateBucket(b)
		return err
	})
	if err != nil {
		return kerrors.Txf(err)
	}
	if !added {
		return nil
	}
	metrics.IndexesOpen.Inc()
	log.Info(fmt.Sprintf("index added: %s", index))
	return nil
}

// DropIndex removes a previously registered index and its backing bucket.
// It is a no-op if the index does not exist, symmetric with AddIndex.
func (d *Datastore) DropIndex(index string) error {
	dropped := false
	err := d.db.Update(func(tx *bolt.Tx) error {
		b := indexBucketName(index)
		if tx.Bucket(b) == nil {
			return nil
		}
		dropped = true
		return tx.DeleteBucket(b)
	})
	if err != nil {
		return kerrors.Txf(err)
	}
	if !dropped {
		return nil
	}
	metrics.IndexesOpen.Dec()
	log.Info(fmt.Sprintf("index dropped: %s", index))
	return nil
}

// IndexExists reports whether index has a backing bucket.
func (d *Datastore) IndexExists(index string) bool {
	exists := false
	_ = d.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(indexBucketName(index)) != nil
		return nil
	})
	return exists
}

// Indexes lists the names of every registered index, the user-visible index
// set spec.md §4.C describes the datastore as remembering across restarts.
// It is read back from the bucket catalogue each call rather than cached,
// so it always reflects concurrent AddIndex/DropIndex calls. The records
// bucket and any bucket literally named "default" are never included: the
// column-family name "default" is reserved and must never appear in the
// user-facing index list (spec.md §6).
func (d *Datastore) Indexes() []string {
	var names []string
	_ = d.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			n := string(name)
			if n == string(recordsBucket) {
				return nil
			}
			if !strings.HasPrefix(n, indexBucketPrefix) {
				return nil
			}
			idx := strings.TrimPrefix(n, indexBucketPrefix)
			if idx == "default" {
				return nil
			}
			names = append(names, idx)
			return nil
		})
	})
	return names
}

// Begin starts a new transaction. A writable transaction holds bbolt's
// single writer lock for its entire lifetime; see Transaction for the
// lifecycle this implies.
func (d *Datastore) Begin(writable bool) (*Transaction, error) {
	tx, err := d.db.Begin(writable)
	if err != nil {
		return nil, kerrors.ErrTxFailure
	}
	metrics.TxBegun.Inc()
	return newTransaction(tx, writable), nil
}
