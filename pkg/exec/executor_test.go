package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/kuiperdb/pkg/document"
	"github.com/cuemby/kuiperdb/pkg/kv"
	"github.com/cuemby/kuiperdb/pkg/lang"
	"github.com/cuemby/kuiperdb/pkg/plan"
	"github.com/cuemby/kuiperdb/pkg/store"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	ds, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return New(ds)
}

func planFor(t *testing.T, query string) plan.QueryPlan {
	t.Helper()
	nodes, err := lang.Parse(query)
	require.NoError(t, err)
	return plan.FromAST(nodes[0].Query)
}

func TestCreateCollectionTwiceSucceeds(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))
	require.NoError(t, e.CreateCollection("widgets"))
}

func TestTestInsertThenSelectSeesIt(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))

	_, err := e.TestInsert("widgets")
	require.NoError(t, err)

	res, err := e.ExecuteSelect(planFor(t, "widgets"))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestBulkInsertPaginatesAcrossSelectPages(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))

	const n = selectPageSize + 37
	ids, err := e.TestBulkInsert("widgets", n)
	require.NoError(t, err)
	require.Len(t, ids, n)

	res, err := e.ExecuteSelect(planFor(t, "widgets"))
	require.NoError(t, err)
	assert.Len(t, res.Records, n)
}

func TestExecuteCollectionScanAndCountAgree(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))

	_, err := e.TestBulkInsert("widgets", 12)
	require.NoError(t, err)

	p := planFor(t, "widgets")
	docs, err := e.ExecuteCollectionScan(p.Root.CollectionScan)
	require.NoError(t, err)
	assert.Len(t, docs, 12)

	count, err := e.ExecuteCount(p.Root.CollectionScan)
	require.NoError(t, err)
	assert.EqualValues(t, 12, count)
}

func TestInsertProjectsIndexedField(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))
	require.NoError(t, e.ds.AddIndex("widgets_by_sku"))

	doc := document.New()
	doc.Set("sku", document.FromString("WX-1"))
	doc.Set("qty", document.FromInt64(4))

	id, err := e.Insert("widgets", doc, map[string]string{"sku": "widgets_by_sku"})
	require.NoError(t, err)

	tx, err := e.ds.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	rows, err := tx.ScanCollectionIndex("widgets_by_sku", nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, kv.KeyFrom(id.Bytes()), rows[0].Key)

	idxDoc, err := document.Decode(rows[0].Val)
	require.NoError(t, err)
	v, ok := idxDoc.Get("0")
	require.True(t, ok)
	assert.Equal(t, "WX-1", v.String())
}

func TestInsertSkipsUnindexableField(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))
	require.NoError(t, e.ds.AddIndex("widgets_by_meta"))

	doc := document.New()
	doc.Set("meta", document.FromDocument(document.New()))

	_, err := e.Insert("widgets", doc, map[string]string{"meta": "widgets_by_meta"})
	require.NoError(t, err)

	tx, err := e.ds.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	rows, err := tx.ScanCollectionIndex("widgets_by_meta", nil, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 0)
}

func TestExecuteSelectIsolatesOtherCollections(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.CreateCollection("widgets"))
	require.NoError(t, e.CreateCollection("gadgets"))

	_, err := e.TestBulkInsert("widgets", 3)
	require.NoError(t, err)
	_, err = e.TestBulkInsert("gadgets", 5)
	require.NoError(t, err)

	res, err := e.ExecuteSelect(planFor(t, "widgets"))
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)

	res, err = e.ExecuteSelect(planFor(t, "gadgets"))
	require.NoError(t, err)
	assert.Len(t, res.Records, 5)
}
