package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/kuiperdb/pkg/ast"
)

func mustQuery(t *testing.T, nodes []ast.Node) *ast.QueryExpr {
	t.Helper()
	require.Len(t, nodes, 1)
	q, ok := nodes[0].Query, nodes[0].Kind == ast.NodeQuery
	require.True(t, ok)
	return q
}

func TestParseBareTable(t *testing.T) {
	nodes, err := Parse("t")
	require.NoError(t, err)
	q := mustQuery(t, nodes)

	assert.Equal(t, "t", q.Table.Value)
	assert.Nil(t, q.Table.Alias)
	assert.Empty(t, q.Filter)
}

func TestParseSingleComparison(t *testing.T) {
	nodes, err := Parse("t | where x = y")
	require.NoError(t, err)
	q := mustQuery(t, nodes)

	require.Len(t, q.Filter, 1)
	f := q.Filter[0]
	assert.Equal(t, ast.Eq, f.Op)

	left, ok := f.Left.AsIdentity()
	require.True(t, ok)
	assert.Equal(t, "x", left.Value)

	right, ok := f.Right.AsIdentity()
	require.True(t, ok)
	assert.Equal(t, "y", right.Value)
}

func TestParseMixedTypeAndFails(t *testing.T) {
	_, err := Parse("t | where x = y and z")
	require.Error(t, err)
}

func TestParseNegativeNumbers(t *testing.T) {
	nodes, err := Parse("t | where x = -5")
	require.NoError(t, err)
	q := mustQuery(t, nodes)
	right, ok := q.Filter[0].Right.AsScalar()
	require.True(t, ok)
	assert.Equal(t, ast.ScalarInt, right.Kind)
	assert.Equal(t, int64(-5), right.Int)

	nodes, err = Parse("t | where x = -5.5")
	require.NoError(t, err)
	q = mustQuery(t, nodes)
	right, ok = q.Filter[0].Right.AsScalar()
	require.True(t, ok)
	assert.Equal(t, ast.ScalarDecimal, right.Kind)
	assert.InDelta(t, -5.5, right.Decimal, 1e-9)
}

func TestParseParensDoNotChangeSingleAtomicAST(t *testing.T) {
	plain, err := Parse("t | where x = y")
	require.NoError(t, err)
	grouped, err := Parse("t | where (x = y)")
	require.NoError(t, err)

	assert.Equal(t, mustQuery(t, plain).Filter, mustQuery(t, grouped).Filter)
}

func TestParseComplexAndOr(t *testing.T) {
	nodes, err := Parse("t | where a = 1 and (b = 2 or c = 3)")
	require.NoError(t, err)
	q := mustQuery(t, nodes)

	require.Len(t, q.Filter, 1)
	root := q.Filter[0]
	assert.Equal(t, ast.And, root.Op)

	leftLeaf, ok := root.Left.AsBinaryExpr()
	require.True(t, ok)
	assert.Equal(t, ast.Eq, leftLeaf.Op)

	rightChild, ok := root.Right.AsBinaryExpr()
	require.True(t, ok)
	assert.Equal(t, ast.Or, rightChild.Op)

	bLeaf, ok := rightChild.Left.AsBinaryExpr()
	require.True(t, ok)
	assert.Equal(t, ast.Eq, bLeaf.Op)

	cLeaf, ok := rightChild.Right.AsBinaryExpr()
	require.True(t, ok)
	assert.Equal(t, ast.Eq, cLeaf.Op)
}

func TestParseIdentifierWithAlias(t *testing.T) {
	nodes, err := Parse("abcd.efgh AS woah")
	require.NoError(t, err)
	q := mustQuery(t, nodes)
	assert.Equal(t, "abcd.efgh", q.Table.Value)
	require.NotNil(t, q.Table.Alias)
	assert.Equal(t, "woah", *q.Table.Alias)
}
