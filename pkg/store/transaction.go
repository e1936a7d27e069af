package store

import (
	"sync"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/keys"
	"github.com/cuemby/kuiperdb/pkg/kv"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/metrics"
)

// nextTxID mints the per-process, monotonically increasing ids Transaction
// carries for log correlation (pkg/log.WithTxID). It is not part of any
// on-disk key and carries no ordering guarantee beyond this process.
var nextTxID uint64

type txState int

const (
	txActive txState = iota
	txCompleted
)

// Transaction is a single bbolt transaction scoped to the records bucket and
// any index buckets it touches. Rather than locking a mutex around a nilable
// "maybe there's a transaction" field, it carries an explicit state tag
// behind one mutex: every method takes the lock, checks state, and either
// proceeds or returns ErrTxFinished.
//
// Unlike the RocksDB OptimisticTransactionDB this design is modeled on,
// bbolt has no read-set conflict tracking: a writable Transaction holds the
// database's single writer lock for its entire lifetime, so writes never
// need to validate against concurrent changes at commit time. This mirrors
// how the prototype this was grounded on behaves too: it uses a plain get,
// never a get-for-update that would record a read for later validation.
type Transaction struct {
	tx       *bolt.Tx
	writable bool
	id       uint64

	mu    sync.Mutex
	state txState
}

func newTransaction(tx *bolt.Tx, writable bool) *Transaction {
	id := atomic.AddUint64(&nextTxID, 1)
	return &Transaction{tx: tx, writable: writable, state: txActive, id: id}
}

// ID returns the transaction's per-process log-correlation id.
func (t *Transaction) ID() uint64 { return t.id }

func (t *Transaction) checkActive() error {
	if t.state != txActive {
		return kerrors.ErrTxFinished
	}
	return nil
}

func (t *Transaction) checkWritable() error {
	if !t.writable {
		return kerrors.ErrTxReadonly
	}
	return nil
}

func (t *Transaction) recordsBucket() *bolt.Bucket {
	return t.tx.Bucket(recordsBucket)
}

func (t *Transaction) indexBucket(index string) (*bolt.Bucket, error) {
	b := t.tx.Bucket(indexBucketName(index))
	if b == nil {
		return nil, kerrors.Value("index does not exist: " + index)
	}
	return b, nil
}

// Get fetches the value stored at key. ok is false if key is absent.
func (t *Transaction) Get(key kv.Key) (val kv.Val, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return nil, false, err
	}
	v := t.recordsBucket().Get(key)
	if v == nil {
		return nil, false, nil
	}
	return kv.Val(v).Clone(), true, nil
}

// KeyExists reports whether key has a stored value.
func (t *Transaction) KeyExists(key kv.Key) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

// Upsert writes val at key unconditionally, creating or overwriting.
func (t *Transaction) Upsert(key kv.Key, val kv.Val) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.recordsBucket().Put(key, val); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// Insert writes val at key, failing with ErrTxKeyAlreadyExists if key is
// already present.
func (t *Transaction) Insert(key kv.Key, val kv.Val) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	b := t.recordsBucket()
	if b.Get(key) != nil {
		return kerrors.ErrTxKeyAlreadyExists
	}
	if err := b.Put(key, val); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// InsertChecked writes val at key only if the current value at key equals
// check (or key is absent and check is nil). Otherwise it fails with
// ErrTxConditionNotMet, symmetric with DeleteChecked.
func (t *Transaction) InsertChecked(key kv.Key, val kv.Val, check kv.Val) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	b := t.recordsBucket()
	current := b.Get(key)
	if !kv.Val(current).Equal(check) {
		return kerrors.ErrTxConditionNotMet
	}
	if err := b.Put(key, val); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// Delete removes key unconditionally. It is not an error if key is absent.
func (t *Transaction) Delete(key kv.Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.recordsBucket().Delete(key); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// DeleteChecked removes key only if its current value equals check,
// otherwise fails with ErrTxConditionNotMet.
func (t *Transaction) DeleteChecked(key kv.Key, check kv.Val) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	b := t.recordsBucket()
	current := b.Get(key)
	if !kv.Val(current).Equal(check) {
		return kerrors.ErrTxConditionNotMet
	}
	if err := b.Delete(key); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// UpdateIndex writes a companion index record to the named index bucket.
// Indexes are not rewritten or removed on later update/delete of the
// underlying document; see pkg/exec for how index records are populated on
// insert.
func (t *Transaction) UpdateIndex(index string, key kv.Key, val kv.Val) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.checkWritable(); err != nil {
		return err
	}
	b, err := t.indexBucket(index)
	if err != nil {
		return err
	}
	if err := b.Put(key, val); err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// Scan returns up to limit key/value pairs from the records bucket in
// forward key order, starting strictly after the key after (or from the
// very first key if after is nil). Plain pagination, unbounded on the right.
func (t *Transaction) Scan(limit int, after kv.Key) ([]kv.Pair, error) {
	return t.scanBucket(t.recordsBucket, after, nil, true, limit)
}

// ScanRange returns up to limit key/value pairs from the records bucket in
// [start, end) order. A nil end means no upper bound.
func (t *Transaction) ScanRange(start, end kv.Key, limit int) ([]kv.Pair, error) {
	return t.scanBucket(t.recordsBucket, start, end, false, limit)
}

// ScanCollection returns up to limit key/value pairs belonging to
// schema::collection, starting strictly after the key after (or from the
// collection's first key). Iteration is bounded by the collection's prefix
// upper bound, so it never reads into a lexicographically adjacent
// collection.
func (t *Transaction) ScanCollection(schema, collection string, after kv.Key, limit int) ([]kv.Pair, error) {
	prefix := keys.CollectionPrefix(schema, collection)
	end := kv.Key(keys.PrefixUpperBound(prefix))

	if after != nil {
		return t.scanBucket(t.recordsBucket, after, end, true, limit)
	}
	return t.scanBucket(t.recordsBucket, kv.Key(prefix), end, false, limit)
}

// ScanCollectionIndex scans a named index bucket the same way ScanCollection
// scans the records bucket, with no prefix bound: an index bucket belongs to
// exactly one collection by construction.
func (t *Transaction) ScanCollectionIndex(index string, after kv.Key, limit int) ([]kv.Pair, error) {
	t.mu.Lock()
	if err := t.checkActive(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	b, err := t.indexBucket(index)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return t.scanBucket(func() *bolt.Bucket { return b }, after, nil, true, limit)
}

// scanBucket walks bucket() forward from start to end (exclusive), returning
// at most limit pairs. When startExclusive is true, a start that matches a
// key exactly is skipped (pagination-cursor semantics); when false, a
// matching start is included (range semantics).
func (t *Transaction) scanBucket(bucket func() *bolt.Bucket, start, end kv.Key, startExclusive bool, limit int) ([]kv.Pair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return nil, err
	}

	c := bucket().Cursor()
	var out []kv.Pair

	var k, v []byte
	if start == nil {
		k, v = c.First()
	} else {
		k, v = c.Seek(start)
		if startExclusive && k != nil && kv.Key(k).Equal(start) {
			k, v = c.Next()
		}
	}

	for ; k != nil && len(out) < limit; k, v = c.Next() {
		if end != nil && kv.Key(k).Compare(end) >= 0 {
			break
		}
		out = append(out, kv.Pair{Key: kv.Key(k).Clone(), Val: kv.Val(v).Clone()})
	}

	return out, nil
}

// Rollback aborts the transaction, discarding any writes.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	t.state = txCompleted
	err := t.tx.Rollback()
	metrics.TxOutcomesTotal.WithLabelValues("rollback").Inc()
	if err != nil {
		return kerrors.Txf(err)
	}
	return nil
}

// Commit finalizes the transaction's writes.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	t.state = txCompleted
	err := t.tx.Commit()
	metrics.TxOutcomesTotal.WithLabelValues("commit").Inc()
	if err != nil {
		logger := log.WithTxID(t.id)
		logger.Warn().Err(err).Msg("commit failed")
		return kerrors.Txf(err)
	}
	return nil
}
