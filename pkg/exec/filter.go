package exec

import (
	"strconv"
	"strings"

	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/document"
	"github.com/cuemby/kuiperdb/pkg/kerrors"
)

// tri is a three-valued logic result: a comparison or logical expression is
// either definitely true, definitely false, or unknown (Null) when its
// operands are not comparable.
type tri int

const (
	triFalse tri = iota
	triTrue
	triNull
)

func triFromBool(b bool) tri {
	if b {
		return triTrue
	}
	return triFalse
}

// EvaluateFilter reports whether doc satisfies expr. A Null (unknown)
// result at the root is treated as non-matching, the same way SQL WHERE
// drops rows whose predicate is unknown.
func EvaluateFilter(expr *ast.BinaryExpr, doc *document.Document) (bool, error) {
	t, err := evalNode(ast.Binary(expr), doc)
	if err != nil {
		return false, err
	}
	return t == triTrue, nil
}

func evalNode(n ast.Node, doc *document.Document) (tri, error) {
	be, ok := n.AsBinaryExpr()
	if !ok {
		return triNull, kerrors.Value("filter: top-level node is not a binary expression")
	}
	return evalBinaryExpr(be, doc)
}

func evalBinaryExpr(e *ast.BinaryExpr, doc *document.Document) (tri, error) {
	switch e.Op {
	case ast.And:
		left, err := evalOperand(e.Left, doc)
		if err != nil {
			return triNull, err
		}
		if left == triFalse {
			return triFalse, nil
		}
		right, err := evalOperand(e.Right, doc)
		if err != nil {
			return triNull, err
		}
		if right == triFalse {
			return triFalse, nil
		}
		if left == triNull || right == triNull {
			return triNull, nil
		}
		return triTrue, nil

	case ast.Or:
		left, err := evalOperand(e.Left, doc)
		if err != nil {
			return triNull, err
		}
		if left == triTrue {
			return triTrue, nil
		}
		right, err := evalOperand(e.Right, doc)
		if err != nil {
			return triNull, err
		}
		if right == triTrue {
			return triTrue, nil
		}
		if left == triNull || right == triNull {
			return triNull, nil
		}
		return triFalse, nil

	default:
		left, err := resolveOperand(e.Left, doc)
		if err != nil {
			return triNull, err
		}
		right, err := resolveOperand(e.Right, doc)
		if err != nil {
			return triNull, err
		}
		return compare(e.Op, left, right), nil
	}
}

// evalOperand evaluates a logical (and/or) operand, which the parser has
// already guaranteed is itself a BinaryExpr node.
func evalOperand(n ast.Node, doc *document.Document) (tri, error) {
	be, ok := n.AsBinaryExpr()
	if !ok {
		return triNull, kerrors.Value("filter: and/or operand is not a binary expression")
	}
	return evalBinaryExpr(be, doc)
}

// operand is the resolved comparison value: either a field lookup result
// (ok=false if the field path does not resolve) or a literal scalar.
type operand struct {
	value document.Value
	ok    bool
}

func resolveOperand(n ast.Node, doc *document.Document) (operand, error) {
	if id, ok := n.AsIdentity(); ok {
		v, found := lookupPath(doc, id.Value)
		return operand{value: v, ok: found}, nil
	}
	if sc, ok := n.AsScalar(); ok {
		v, ok := scalarToValue(sc)
		return operand{value: v, ok: ok}, nil
	}
	return operand{}, kerrors.Value("filter: comparison operand is neither an identifier nor a scalar")
}

// lookupPath descends a dotted field path through nested documents.
func lookupPath(doc *document.Document, path string) (document.Value, bool) {
	parts := strings.Split(path, ".")
	cur := doc
	for i, part := range parts {
		v, ok := cur.Get(part)
		if !ok {
			return document.Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if v.Kind != document.KindDocument {
			return document.Value{}, false
		}
		cur = v.Document()
	}
	return document.Value{}, false
}

func scalarToValue(s ast.ScalarValue) (document.Value, bool) {
	switch s.Kind {
	case ast.ScalarInt:
		return document.FromInt64(s.Int), true
	case ast.ScalarDecimal:
		return document.FromDouble(s.Decimal), true
	case ast.ScalarString:
		return document.FromString(s.Str), true
	case ast.ScalarBoolean:
		return document.FromBool(s.Bool), true
	case ast.ScalarDate:
		return document.FromString(s.Date), true
	case ast.ScalarNull:
		return document.Null(), true
	case ast.ScalarUndefined:
		return document.Value{}, false
	default:
		return document.Value{}, false
	}
}

// compare applies op to two resolved operands under three-valued logic:
// an unresolved field, a literal undefined, or a type mismatch all yield
// Null rather than an error, so a filter stage simply excludes the row.
func compare(op ast.BinaryOp, left, right operand) tri {
	if !left.ok || !right.ok {
		return triNull
	}

	switch {
	case isNumeric(left.value) && isNumeric(right.value):
		return compareFloat(op, numericOf(left.value), numericOf(right.value))
	case left.value.Kind == document.KindString && right.value.Kind == document.KindString:
		return compareOrdered(op, strings.Compare(left.value.String(), right.value.String()))
	case left.value.Kind == document.KindBool && right.value.Kind == document.KindBool:
		return compareBool(op, left.value.Bool(), right.value.Bool())
	case left.value.Kind == document.KindNull && right.value.Kind == document.KindNull:
		return compareOrdered(op, 0)
	default:
		return triNull
	}
}

func isNumeric(v document.Value) bool {
	switch v.Kind {
	case document.KindInt32, document.KindInt64, document.KindDouble:
		return true
	case document.KindDecimal:
		return true
	default:
		return false
	}
}

func numericOf(v document.Value) float64 {
	switch v.Kind {
	case document.KindInt32:
		return float64(v.Int32())
	case document.KindInt64:
		return float64(v.Int64())
	case document.KindDouble:
		return v.Double()
	case document.KindDecimal:
		f, err := strconv.ParseFloat(v.Decimal(), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func compareFloat(op ast.BinaryOp, l, r float64) tri {
	switch op {
	case ast.Eq:
		return triFromBool(l == r)
	case ast.Ne:
		return triFromBool(l != r)
	case ast.Lt:
		return triFromBool(l < r)
	case ast.LtEq:
		return triFromBool(l <= r)
	case ast.Gt:
		return triFromBool(l > r)
	case ast.GtEq:
		return triFromBool(l >= r)
	default:
		return triNull
	}
}

func compareOrdered(op ast.BinaryOp, cmp int) tri {
	switch op {
	case ast.Eq:
		return triFromBool(cmp == 0)
	case ast.Ne:
		return triFromBool(cmp != 0)
	case ast.Lt:
		return triFromBool(cmp < 0)
	case ast.LtEq:
		return triFromBool(cmp <= 0)
	case ast.Gt:
		return triFromBool(cmp > 0)
	case ast.GtEq:
		return triFromBool(cmp >= 0)
	default:
		return triNull
	}
}

// compareBool orders false < true, as the ordinal comparison operators
// need some total order to fall back on.
func compareBool(op ast.BinaryOp, l, r bool) tri {
	li, ri := 0, 0
	if l {
		li = 1
	}
	if r {
		ri = 1
	}
	return compareOrdered(op, li-ri)
}
