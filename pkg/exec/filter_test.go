package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/document"
	"github.com/cuemby/kuiperdb/pkg/lang"
)

func docWith(fields map[string]document.Value) *document.Document {
	d := document.New()
	for k, v := range fields {
		d.Set(k, v)
	}
	return d
}

func whereExpr(t *testing.T, query string) *ast.BinaryExpr {
	t.Helper()
	nodes, err := lang.Parse(query)
	require.NoError(t, err)
	require.Len(t, nodes[0].Query.Filter, 1)
	return &nodes[0].Query.Filter[0]
}

func TestEvaluateFilterNumericComparison(t *testing.T) {
	expr := whereExpr(t, "t | where age > 21")

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"age": document.FromInt64(30),
	}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateFilter(expr, docWith(map[string]document.Value{
		"age": document.FromInt64(10),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterMissingFieldIsNullNotMatch(t *testing.T) {
	expr := whereExpr(t, "t | where age > 21")

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"name": document.FromString("x"),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterStringComparison(t *testing.T) {
	expr := whereExpr(t, `t | where name = "alice"`)

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"name": document.FromString("alice"),
	}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateFilter(expr, docWith(map[string]document.Value{
		"name": document.FromString("bob"),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterMixedTypeIsNullNotMatch(t *testing.T) {
	expr := whereExpr(t, `t | where name = 5`)

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"name": document.FromString("5"),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterAndShortCircuitsOnFalse(t *testing.T) {
	expr := whereExpr(t, "t | where a = 1 and b = 2")

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"a": document.FromInt64(9),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterOrMatchesEitherBranch(t *testing.T) {
	expr := whereExpr(t, "t | where a = 1 and (b = 2 or c = 3)")

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"a": document.FromInt64(1),
		"c": document.FromInt64(3),
	}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateFilter(expr, docWith(map[string]document.Value{
		"a": document.FromInt64(1),
		"b": document.FromInt64(0),
		"c": document.FromInt64(0),
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFilterBoolOrdering(t *testing.T) {
	expr := whereExpr(t, "t | where active > false")

	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"active": document.FromBool(true),
	}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateFilterDottedPath(t *testing.T) {
	expr := whereExpr(t, "t | where profile.age >= 18")

	nested := document.New()
	nested.Set("age", document.FromInt64(21))
	ok, err := EvaluateFilter(expr, docWith(map[string]document.Value{
		"profile": document.FromDocument(nested),
	}))
	require.NoError(t, err)
	assert.True(t, ok)
}
