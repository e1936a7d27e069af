// Package plan turns a parsed query into the single plan node shape the
// executor currently knows how to run: a CollectionScan.
package plan

import (
	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/keys"
)

// NodeKind tags which plan node shape is in play. CollectionScan is the
// only one implemented today; the type exists so the planner's output has
// somewhere to grow without every caller pattern-matching a concrete struct.
type NodeKind int

const (
	CollectionScanKind NodeKind = iota
)

// CollectionScan reads every document in schema::collection, optionally
// filtered by expr. expr is always nil today: filter expressions are not
// yet pushed into the plan, per the planner's current scope.
type CollectionScan struct {
	Schema     string
	Collection string
	Alias      *string
	Expr       *ast.BinaryExpr
}

// Node is the planner's output: currently always a CollectionScan.
type Node struct {
	Kind           NodeKind
	CollectionScan *CollectionScan
}

// QueryPlan wraps the root plan Node.
type QueryPlan struct {
	Root Node
}

// FromAST builds a QueryPlan from a parsed QueryExpr. It is a total function
// over well-formed AST: there are no planner-level failures today.
func FromAST(q *ast.QueryExpr) QueryPlan {
	return QueryPlan{
		Root: Node{
			Kind: CollectionScanKind,
			CollectionScan: &CollectionScan{
				Schema:     keys.DefaultSchema,
				Collection: q.Table.Value,
				Alias:      q.Table.Alias,
				Expr:       nil,
			},
		},
	}
}
