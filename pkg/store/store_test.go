package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/kv"
)

func openTestDatastore(t *testing.T) *Datastore {
	t.Helper()
	ds, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestInsertThenGet(t *testing.T) {
	ds := openTestDatastore(t)

	tx, err := ds.Begin(true)
	require.NoError(t, err)

	require.NoError(t, tx.Insert(kv.KeyFrom("a"), kv.ValFrom("1")))
	v, ok, err := tx.Get(kv.KeyFrom("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	require.NoError(t, tx.Commit())
}

func TestInsertDuplicateFails(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.Insert(kv.KeyFrom("a"), kv.ValFrom("1")))
	err = tx.Insert(kv.KeyFrom("a"), kv.ValFrom("2"))
	assert.True(t, kerrors.Is(err, kerrors.KindTxKeyAlreadyExists))
}

func TestUpsertOverwrites(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("1")))
	require.NoError(t, tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("2")))
	v, ok, err := tx.Get(kv.KeyFrom("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(v))
}

func TestDeleteChecked(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("1")))

	err = tx.DeleteChecked(kv.KeyFrom("a"), kv.ValFrom("wrong"))
	assert.True(t, kerrors.Is(err, kerrors.KindTxConditionNotMet))

	require.NoError(t, tx.DeleteChecked(kv.KeyFrom("a"), kv.ValFrom("1")))
	_, ok, err := tx.Get(kv.KeyFrom("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ds := openTestDatastore(t)

	tx, err := ds.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("1")))
	require.NoError(t, tx.Rollback())

	tx2, err := ds.Begin(false)
	require.NoError(t, err)
	defer tx2.Rollback()
	_, ok, err := tx2.Get(kv.KeyFrom("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompletedTransactionRejectsFurtherOps(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, _, err = tx.Get(kv.KeyFrom("a"))
	assert.True(t, kerrors.Is(err, kerrors.KindTxFinished))

	err = tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("1"))
	assert.True(t, kerrors.Is(err, kerrors.KindTxFinished))
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	err = tx.Upsert(kv.KeyFrom("a"), kv.ValFrom("1"))
	assert.True(t, kerrors.Is(err, kerrors.KindTxReadonly))
}

func TestScanPaginatesInKeyOrder(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)

	for _, k := range []string{"b", "a", "d", "c"} {
		require.NoError(t, tx.Upsert(kv.KeyFrom(k), kv.ValFrom(k)))
	}
	require.NoError(t, tx.Commit())

	rtx, err := ds.Begin(false)
	require.NoError(t, err)
	defer rtx.Rollback()

	page1, err := rtx.Scan(2, nil)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "a", string(page1[0].Key))
	assert.Equal(t, "b", string(page1[1].Key))

	page2, err := rtx.Scan(2, page1[len(page1)-1].Key)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", string(page2[0].Key))
	assert.Equal(t, "d", string(page2[1].Key))
}

func TestScanCollectionStaysWithinPrefix(t *testing.T) {
	ds := openTestDatastore(t)
	tx, err := ds.Begin(true)
	require.NoError(t, err)

	require.NoError(t, tx.Upsert(kv.KeyFrom("default::users::1"), kv.ValFrom("u1")))
	require.NoError(t, tx.Upsert(kv.KeyFrom("default::users::2"), kv.ValFrom("u2")))
	require.NoError(t, tx.Upsert(kv.KeyFrom("default::usersx::1"), kv.ValFrom("leak")))
	require.NoError(t, tx.Commit())

	rtx, err := ds.Begin(false)
	require.NoError(t, err)
	defer rtx.Rollback()

	rows, err := rtx.ScanCollection("default", "users", nil, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEqual(t, "leak", string(r.Val))
	}
}

func TestAddIndexAndUpdateIndex(t *testing.T) {
	ds := openTestDatastore(t)
	require.NoError(t, ds.AddIndex("users_by_email"))
	assert.True(t, ds.IndexExists("users_by_email"))

	tx, err := ds.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.UpdateIndex("users_by_email", kv.KeyFrom("1"), kv.ValFrom("a@example.com")))
	require.NoError(t, tx.Commit())

	rtx, err := ds.Begin(false)
	require.NoError(t, err)
	defer rtx.Rollback()
	rows, err := rtx.ScanCollectionIndex("users_by_email", nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@example.com", string(rows[0].Val))

	require.NoError(t, ds.DropIndex("users_by_email"))
	assert.False(t, ds.IndexExists("users_by_email"))
}

func TestAddIndexIsIdempotent(t *testing.T) {
	ds := openTestDatastore(t)
	require.NoError(t, ds.AddIndex("ix"))
	require.NoError(t, ds.AddIndex("ix"))
	assert.True(t, ds.IndexExists("ix"))
}

func TestDropIndexIsIdempotent(t *testing.T) {
	ds := openTestDatastore(t)
	require.NoError(t, ds.DropIndex("never-added"))
	require.NoError(t, ds.AddIndex("ix"))
	require.NoError(t, ds.DropIndex("ix"))
	require.NoError(t, ds.DropIndex("ix"))
	assert.False(t, ds.IndexExists("ix"))
}

func TestIndexesExcludesDefaultAndSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	ds, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, ds.AddIndex("ix"))
	assert.ElementsMatch(t, []string{"ix"}, ds.Indexes())
	require.NoError(t, ds.Close())

	ds2, err := Open(dir)
	require.NoError(t, err)
	defer ds2.Close()

	indexes := ds2.Indexes()
	assert.Contains(t, indexes, "ix")
	assert.NotContains(t, indexes, "default")
}
