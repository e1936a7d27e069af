package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/kuiperdb/pkg/lang"
)

func TestFromASTBuildsCollectionScan(t *testing.T) {
	nodes, err := lang.Parse("widgets")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	p := FromAST(nodes[0].Query)
	require.Equal(t, CollectionScanKind, p.Root.Kind)
	assert.Equal(t, "default", p.Root.CollectionScan.Schema)
	assert.Equal(t, "widgets", p.Root.CollectionScan.Collection)
	assert.Nil(t, p.Root.CollectionScan.Expr)
}
