// Package lang implements the pipe-oriented query language's lexer, grammar,
// and AST builder: source text in, an ast.Node tree out.
//
// The grammar is expressed as participle struct tags rather than hand-rolled
// recursive-descent, the way the teacher never needed a language parser but
// the rest of the retrieval pack leans on struct-tag grammars for exactly
// this kind of small DSL. Logical composition ("and"/"or") is written as a
// left-to-right chain of comparisons rather than the spec's literal
// left-recursive "BinaryTerm BinaryOp BinaryTerm" shape, which a recursive
// descent parser cannot express directly without infinite left recursion;
// the chain is folded pairwise, left-associatively, into the same nested
// BinaryExpr tree shape at AST-build time, and the AST builder — not the
// grammar — enforces that and/or operands are themselves BinaryExpr nodes.
package lang

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/kerrors"
)

var klangLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Decimal", Pattern: `-?\d+\.\d+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Op", Pattern: `!=|>=|<=|=|<|>|\||\(|\)|\.`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

// grammar types. Field order mirrors parse order; participle tags drive the
// actual matching.

type grammarStatement struct {
	Query *grammarQuery `@@`
}

type grammarQuery struct {
	Table   *grammarIdentifierStmt `@@`
	Clauses []*grammarAtomicClause `@@*`
}

type grammarAtomicClause struct {
	Where *grammarWhereClause `"|" @@`
}

type grammarWhereClause struct {
	Expr *grammarBinaryExpr `"where" @@`
}

// grammarBinaryExpr is a left-to-right chain: a leading term, then any
// number of (logical-op, term) pairs.
type grammarBinaryExpr struct {
	Head *grammarChainTerm  `@@`
	Tail []*grammarChainTail `@@*`
}

type grammarChainTail struct {
	Op   string            `@("and" | "or")`
	Term *grammarChainTerm `@@`
}

// grammarChainTerm is one element of a logical chain: a bare comparison, a
// bare scalar/identifier (grammatically legal, rejected later by the
// and/or-operand check if used as a logical operand), or a parenthesized
// sub-expression.
type grammarChainTerm struct {
	Paren      *grammarBinaryExpr  `  "(" @@ ")"`
	Comparison *grammarComparison  `| @@`
	Scalar     *grammarScalarValue `| @@`
	Identifier *grammarIdentifierPath `| @@`
}

type grammarComparison struct {
	Left  *grammarBinaryTerm `@@`
	Op    string             `@("!=" | ">=" | "<=" | "=" | "<" | ">")`
	Right *grammarBinaryTerm `@@`
}

type grammarBinaryTerm struct {
	Scalar     *grammarScalarValue    `  @@`
	Identifier *grammarIdentifierPath `| @@`
}

type grammarScalarValue struct {
	Decimal *float64 `  @Decimal`
	Int     *int64   `| @Int`
	String  *string  `| @String`
	Boolean *string  `| @("true" | "false")`
	Null    bool     `| @"null"`
	Undef   bool     `| @"undefined"`
}

type grammarIdentifierPath struct {
	Parts []string `@Ident ("." @Ident)*`
}

type grammarIdentifierStmt struct {
	Path  *grammarIdentifierPath `@@`
	Alias *string                `("AS" @Ident)?`
}

var parser = participle.MustBuild[grammarStatement](
	participle.Lexer(klangLexer),
	participle.Unquote("String"),
	participle.CaseInsensitive("Ident"),
	participle.Elide("Whitespace"),
)

// Parse lexes and parses source, returning the flat sequence of top-level
// nodes the statement produces (currently always exactly one Query, or a
// Parse error).
func Parse(source string) ([]ast.Node, error) {
	stmt, err := parser.ParseString("", source)
	if err != nil {
		return nil, kerrors.Parse(err.Error())
	}

	query, err := buildQuery(stmt.Query)
	if err != nil {
		return nil, err
	}
	return []ast.Node{ast.Query(query)}, nil
}

func buildQuery(g *grammarQuery) (*ast.QueryExpr, error) {
	table, err := buildIdentifierStmt(g.Table)
	if err != nil {
		return nil, err
	}

	q := &ast.QueryExpr{Table: table}

	for _, clause := range g.Clauses {
		if clause.Where == nil {
			return nil, kerrors.Parse("unsupported pipe stage")
		}
		expr, err := buildBinaryExpr(clause.Where.Expr)
		if err != nil {
			return nil, err
		}
		be, ok := expr.AsBinaryExpr()
		if !ok {
			return nil, kerrors.Parse("where clause must be a comparison or logical expression")
		}
		q.Filter = append(q.Filter, *be)
	}

	return q, nil
}

func buildIdentifierStmt(g *grammarIdentifierStmt) (ast.IdentityValue, error) {
	v := joinPath(g.Path.Parts)
	id := ast.IdentityValue{Value: v}
	if g.Alias != nil {
		id.Alias = g.Alias
	}
	return id, nil
}

func joinPath(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

// buildBinaryExpr folds a grammar-level chain of terms and logical operators
// into the nested ast.Node tree, left-associatively, enforcing at each
// and/or fold step that both operands are themselves BinaryExpr nodes.
func buildBinaryExpr(g *grammarBinaryExpr) (ast.Node, error) {
	result, err := buildChainTerm(g.Head)
	if err != nil {
		return ast.Node{}, err
	}

	for _, tail := range g.Tail {
		next, err := buildChainTerm(tail.Term)
		if err != nil {
			return ast.Node{}, err
		}

		op, err := logicalOp(tail.Op)
		if err != nil {
			return ast.Node{}, err
		}

		if _, ok := result.AsBinaryExpr(); !ok {
			return ast.Node{}, kerrors.Parse(
				"invalid use of and/or operator: left operand must be a comparison or logical expression")
		}
		if _, ok := next.AsBinaryExpr(); !ok {
			return ast.Node{}, kerrors.Parse(
				"invalid use of and/or operator: right operand must be a comparison or logical expression")
		}

		result = ast.Binary(&ast.BinaryExpr{Op: op, Left: result, Right: next})
	}

	return result, nil
}

func logicalOp(text string) (ast.BinaryOp, error) {
	switch text {
	case "and", "AND", "And":
		return ast.And, nil
	case "or", "OR", "Or":
		return ast.Or, nil
	default:
		panic(fmt.Sprintf("lang: unknown logical operator token %q", text))
	}
}

func buildChainTerm(g *grammarChainTerm) (ast.Node, error) {
	switch {
	case g.Paren != nil:
		return buildBinaryExpr(g.Paren)
	case g.Comparison != nil:
		return buildComparison(g.Comparison)
	case g.Scalar != nil:
		return buildScalar(g.Scalar), nil
	case g.Identifier != nil:
		return ast.Identity(ast.IdentityValue{Value: joinPath(g.Identifier.Parts)}), nil
	default:
		panic("lang: chain term grammar produced no alternative")
	}
}

func buildComparison(g *grammarComparison) (ast.Node, error) {
	left, err := buildBinaryTerm(g.Left)
	if err != nil {
		return ast.Node{}, err
	}
	right, err := buildBinaryTerm(g.Right)
	if err != nil {
		return ast.Node{}, err
	}

	op, err := comparisonOp(g.Op)
	if err != nil {
		return ast.Node{}, err
	}

	return ast.Binary(&ast.BinaryExpr{Op: op, Left: left, Right: right}), nil
}

func comparisonOp(text string) (ast.BinaryOp, error) {
	switch text {
	case "=":
		return ast.Eq, nil
	case "!=":
		return ast.Ne, nil
	case "<":
		return ast.Lt, nil
	case "<=":
		return ast.LtEq, nil
	case ">":
		return ast.Gt, nil
	case ">=":
		return ast.GtEq, nil
	default:
		panic(fmt.Sprintf("lang: unknown comparison operator token %q", text))
	}
}

func buildBinaryTerm(g *grammarBinaryTerm) (ast.Node, error) {
	switch {
	case g.Scalar != nil:
		return buildScalar(g.Scalar), nil
	case g.Identifier != nil:
		return ast.Identity(ast.IdentityValue{Value: joinPath(g.Identifier.Parts)}), nil
	default:
		panic("lang: binary term grammar produced no alternative")
	}
}

func buildScalar(g *grammarScalarValue) ast.Node {
	switch {
	case g.Decimal != nil:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarDecimal, Decimal: *g.Decimal})
	case g.Int != nil:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarInt, Int: *g.Int})
	case g.String != nil:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarString, Str: *g.String})
	case g.Boolean != nil:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarBoolean, Bool: *g.Boolean == "true"})
	case g.Null:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarNull})
	case g.Undef:
		return ast.Scalar(ast.ScalarValue{Kind: ast.ScalarUndefined})
	default:
		panic("lang: scalar grammar produced no alternative")
	}
}
