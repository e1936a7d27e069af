// Package exec implements the query executor: the component that actually
// walks collections, decodes documents, and (for the filter contract) tests
// them against a predicate.
package exec

import (
	"github.com/cuemby/kuiperdb/pkg/document"
	"github.com/cuemby/kuiperdb/pkg/keys"
	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/kv"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/metrics"
	"github.com/cuemby/kuiperdb/pkg/objectid"
	"github.com/cuemby/kuiperdb/pkg/plan"
	"github.com/cuemby/kuiperdb/pkg/store"
)

const (
	selectPageSize = 5000
	scanPageSize   = 10000
)

// Executor owns shared access to a Datastore and runs plans against it.
type Executor struct {
	ds *store.Datastore
}

// New returns an Executor bound to ds.
func New(ds *store.Datastore) *Executor {
	return &Executor{ds: ds}
}

// QueryResult is the decoded output of ExecuteSelect.
type QueryResult struct {
	Records []*document.Document
}

// CreateCollection registers collection in the information_schema catalogue.
// It does not create any backing index; collections exist implicitly the
// first time a document is written under their prefix.
func (e *Executor) CreateCollection(name string) error {
	if err := keys.ValidateName("collection", name); err != nil {
		return err
	}

	tx, err := e.ds.Begin(true)
	if err != nil {
		return err
	}

	row := document.New()
	id := objectid.New()
	row.Set("_id", document.FromObjectID(id))
	row.Set("schema", document.FromString(keys.DefaultSchema))
	row.Set("collection", document.FromString(name))

	val, err := row.Encode()
	if err != nil {
		tx.Rollback()
		return err
	}

	key := keys.RecordKey(keys.InformationSchema, keys.InformationSchemaTable, id.Bytes())
	if err := tx.Upsert(key, kv.ValFrom(val)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger := log.WithCollection(name)
	logger.Info().Msg("collection created")
	return nil
}

// Insert writes doc into schema=default::collection under a fresh
// object-id, projecting each field named in indexFields into its paired
// index bucket if the field is present and its value is of an indexable
// kind (spec §4.E; everything but Document and Array). This is the
// "writes an index entry on insert" half of the index contract spec.md §9
// already notes the design never extends to update/delete: an indexed
// field changed later does not get its index record rewritten.
func (e *Executor) Insert(collection string, doc *document.Document, indexFields map[string]string) (objectid.ObjectID, error) {
	id := objectid.New()
	doc.Set("_id", document.FromObjectID(id))

	val, err := doc.Encode()
	if err != nil {
		return objectid.ObjectID{}, err
	}

	tx, err := e.ds.Begin(true)
	if err != nil {
		return objectid.ObjectID{}, err
	}

	key := keys.RecordKey(keys.DefaultSchema, collection, id.Bytes())
	if err := tx.Insert(key, kv.ValFrom(val)); err != nil {
		tx.Rollback()
		return objectid.ObjectID{}, err
	}

	for field, index := range indexFields {
		fv, ok := doc.Get(field)
		if !ok || !fv.Kind.Indexable() {
			continue
		}
		idxDoc := document.New()
		idxDoc.Set("0", fv)
		idxVal, err := idxDoc.Encode()
		if err != nil {
			tx.Rollback()
			return objectid.ObjectID{}, err
		}
		if err := tx.UpdateIndex(index, kv.KeyFrom(id.Bytes()), kv.ValFrom(idxVal)); err != nil {
			tx.Rollback()
			return objectid.ObjectID{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return objectid.ObjectID{}, err
	}
	return id, nil
}

// ExecuteSelect runs a CollectionScan plan to completion, decoding every
// matching document. The whole call runs inside one read-only transaction,
// so every page it fetches observes the same snapshot.
func (e *Executor) ExecuteSelect(p plan.QueryPlan) (*QueryResult, error) {
	cs := p.Root.CollectionScan
	if cs == nil {
		return nil, kerrors.Value("plan has no collection scan")
	}

	tx, err := e.ds.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var records []*document.Document
	var last kv.Key

	for {
		timer := metrics.NewTimer()
		rows, err := tx.ScanCollection(cs.Schema, cs.Collection, last, selectPageSize)
		timer.ObserveDuration(metrics.ScanPageLatency)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			doc, err := document.Decode(row.Val)
			if err != nil {
				return nil, err
			}
			if cs.Expr != nil {
				ok, err := EvaluateFilter(cs.Expr, doc)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			records = append(records, doc)
		}

		if len(rows) < selectPageSize {
			break
		}
		last = rows[len(rows)-1].Key
	}

	return &QueryResult{Records: records}, nil
}

// ExecuteCollectionScan runs the same pagination as ExecuteSelect with a
// larger page size and no filter, returning raw decoded documents. The
// cursor between pages is the last raw record key, not a reconstructed key
// from the decoded _id field: this sidesteps a class of bug a binary-typed
// _id assumption would otherwise hit.
func (e *Executor) ExecuteCollectionScan(cs *plan.CollectionScan) ([]*document.Document, error) {
	scanTimer := metrics.NewTimer()
	defer scanTimer.ObserveDurationVec(metrics.CollectionScanDuration, cs.Collection)

	tx, err := e.ds.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var out []*document.Document
	var last kv.Key

	for {
		timer := metrics.NewTimer()
		rows, err := tx.ScanCollection(cs.Schema, cs.Collection, last, scanPageSize)
		timer.ObserveDuration(metrics.ScanPageLatency)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			doc, err := document.Decode(row.Val)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}

		if len(rows) < scanPageSize {
			break
		}
		last = rows[len(rows)-1].Key
	}

	return out, nil
}

// ExecuteCount returns the number of documents in schema::collection without
// decoding them, summing page lengths across the same pagination as
// ExecuteCollectionScan.
func (e *Executor) ExecuteCount(cs *plan.CollectionScan) (uint64, error) {
	tx, err := e.ds.Begin(false)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var count uint64
	var last kv.Key

	for {
		rows, err := tx.ScanCollection(cs.Schema, cs.Collection, last, scanPageSize)
		if err != nil {
			return 0, err
		}

		count += uint64(len(rows))
		if len(rows) < scanPageSize {
			break
		}
		last = rows[len(rows)-1].Key
	}

	return count, nil
}

// TestInsert inserts a single fresh object-id-only document into collection,
// as a development helper for exercising scans without going through the
// query language.
func (e *Executor) TestInsert(collection string) (objectid.ObjectID, error) {
	ids, err := e.TestBulkInsert(collection, 1)
	if err != nil {
		return objectid.ObjectID{}, err
	}
	return ids[0], nil
}

// TestBulkInsert inserts count fresh object-id-only documents into
// collection in a single read-write transaction that commits once at the
// end.
func (e *Executor) TestBulkInsert(collection string, count int) ([]objectid.ObjectID, error) {
	tx, err := e.ds.Begin(true)
	if err != nil {
		return nil, err
	}

	ids := make([]objectid.ObjectID, 0, count)
	for i := 0; i < count; i++ {
		id := objectid.New()
		doc := document.New()
		doc.Set("_id", document.FromObjectID(id))

		val, err := doc.Encode()
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		key := keys.RecordKey(keys.DefaultSchema, collection, id.Bytes())
		if err := tx.Insert(key, kv.ValFrom(val)); err != nil {
			tx.Rollback()
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}
