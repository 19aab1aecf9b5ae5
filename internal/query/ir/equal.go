package ir

import (
	"bytes"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Equal reports whether two trees are structurally equal: same variants,
// same types, same operators and equal constant values.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return isNilNode(a) && isNilNode(b)
	}
	if a.Kind() != b.Kind() {
		return equalCast(a, b)
	}
	if !a.Type().Equal(b.Type()) {
		return false
	}

	switch x := a.(type) {
	case *Binary:
		y := b.(*Binary)
		return x.op == y.op && Equal(x.left, y.left) && Equal(x.right, y.right)
	case *Unary:
		y := b.(*Unary)
		return x.op == y.op && Equal(x.operand, y.operand)
	case *Call:
		y := b.(*Call)
		return x.fn == y.fn && equalNodes(x.args, y.args)
	case *Constant:
		return valuesEqual(x.value, b.(*Constant).value)
	case *Member:
		y := b.(*Member)
		if x.prop != y.prop {
			return false
		}
		if x.instance == nil || y.instance == nil {
			return x.instance == nil && y.instance == nil
		}
		return Equal(x.instance, y.instance)
	case *Convert:
		return Equal(x.operand, b.(*Convert).operand)
	case *SortKey:
		y := b.(*SortKey)
		return x.descending == y.descending && Equal(x.expr, y.expr)
	case *SelectColumn:
		y := b.(*SelectColumn)
		if x.wildcard != y.wildcard || len(x.path) != len(y.path) {
			return false
		}
		for i := range x.path {
			if x.path[i] != y.path[i] {
				return false
			}
		}
		return true
	case *Query:
		y := b.(*Query)
		if x.skip != y.skip || x.format != y.format || x.inlineCount != y.inlineCount {
			return false
		}
		if (x.top == nil) != (y.top == nil) || (x.top != nil && *x.top != *y.top) {
			return false
		}
		if !Equal(x.filter, y.filter) {
			return false
		}
		if len(x.orderBy) != len(y.orderBy) || len(x.selectCols) != len(y.selectCols) {
			return false
		}
		for i := range x.orderBy {
			if !Equal(x.orderBy[i], y.orderBy[i]) {
				return false
			}
		}
		for i := range x.selectCols {
			if !Equal(x.selectCols[i], y.selectCols[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// equalCast matches an explicit Convert against the two-argument cast call
// it renders as. The wire has no nullable type names, so the targets are
// compared without nullability.
func equalCast(a, b Node) bool {
	if _, ok := a.(*Call); ok {
		a, b = b, a
	}
	conv, ok := a.(*Convert)
	if !ok || conv.Implicit() {
		return false
	}
	call, ok := b.(*Call)
	if !ok || call.fn != FnCast || len(call.args) != 2 {
		return false
	}
	return conv.typ.NonNullable().Equal(call.typ.NonNullable()) && Equal(conv.operand, call.args[0])
}

// isNilNode treats typed nil pointers as absent nodes.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Member:
		return v == nil
	case *SortKey:
		return v == nil
	case *Query:
		return v == nil
	}
	return false
}

func equalNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *apd.Decimal:
		y, ok := b.(*apd.Decimal)
		return ok && x.Cmp(y) == 0
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		return ok && x == y
	case *schema.Type:
		y, ok := b.(*schema.Type)
		return ok && x.Equal(y)
	}
	return a == b
}
