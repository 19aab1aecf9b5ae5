package translator

import (
	"github.com/spf13/cast"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

var binaryOperators = map[host.BinaryOp]ir.BinaryOperator{
	host.OpAdd:                ir.OpAdd,
	host.OpSubtract:           ir.OpSub,
	host.OpMultiply:           ir.OpMul,
	host.OpDivide:             ir.OpDiv,
	host.OpModulo:             ir.OpMod,
	host.OpEqual:              ir.OpEq,
	host.OpNotEqual:           ir.OpNe,
	host.OpLessThan:           ir.OpLt,
	host.OpLessThanOrEqual:    ir.OpLe,
	host.OpGreaterThan:        ir.OpGt,
	host.OpGreaterThanOrEqual: ir.OpGe,
	host.OpAndAlso:            ir.OpAnd,
	host.OpOrElse:             ir.OpOr,
	host.OpAnd:                ir.OpAnd,
	host.OpOr:                 ir.OpOr,
}

// string instance methods and the wire function each maps to
var stringMethods = map[string]ir.Function{
	"StartsWith": ir.FnStartsWith,
	"EndsWith":   ir.FnEndsWith,
	"Contains":   ir.FnSubstringOf,
	"IndexOf":    ir.FnIndexOf,
	"Replace":    ir.FnReplace,
	"Substring":  ir.FnSubstring,
	"ToLower":    ir.FnToLower,
	"ToUpper":    ir.FnToUpper,
	"Trim":       ir.FnTrim,
}

var staticMethods = map[string]ir.Function{
	"Concat":  ir.FnConcat,
	"Round":   ir.FnRound,
	"Floor":   ir.FnFloor,
	"Ceiling": ir.FnCeiling,
}

// translate reduces a host expression inside a lambda body to IR. A bare
// reference to the root row translates to (nil, nil).
func (s *session) translate(e host.Expr) (ir.Node, error) {
	switch x := e.(type) {
	case *host.Parameter:
		return s.paths.Parameter(x)
	case *host.Member:
		return s.paths.Member(x)
	case *host.Constant:
		return constant(x)
	case *host.Binary:
		return s.binary(x)
	case *host.Unary:
		return s.unary(x)
	case *host.Convert:
		operand, err := s.value(x.Operand())
		if err != nil {
			return nil, err
		}
		out, err := ir.NewConvert(operand, x.Type())
		return out, qerrors.WrapCompile(err)
	case *host.Call:
		return s.call(x)
	case *host.QueryCall:
		return nil, qerrors.Compilef(qerrors.ErrNestedQuery, "nested query structures are not supported")
	}
	return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
		"%s %s has no wire form", e.Kind(), host.Format(e))
}

// value translates e and rejects the root row marker
func (s *session) value(e host.Expr) (ir.Node, error) {
	n, err := s.translate(e)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, qerrors.Compilef(qerrors.ErrUntranslatableParameter,
			"%s cannot be used as a value", host.Format(e))
	}
	return n, nil
}

func (s *session) binary(b *host.Binary) (ir.Node, error) {
	left, err := s.value(b.Left())
	if err != nil {
		return nil, err
	}
	right, err := s.value(b.Right())
	if err != nil {
		return nil, err
	}

	if b.Op() == host.OpAdd &&
		left.Type().NonNullable() == schema.String && right.Type().NonNullable() == schema.String {
		out, err := ir.NewCall(ir.FnConcat, []ir.Node{left, right})
		return out, qerrors.WrapCompile(err)
	}

	op, ok := binaryOperators[b.Op()]
	if !ok {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"operator %s has no wire form", b.Op())
	}
	out, err := ir.NewBinary(left, op, right)
	return out, qerrors.WrapCompile(err)
}

func (s *session) unary(u *host.Unary) (ir.Node, error) {
	operand, err := s.value(u.Operand())
	if err != nil {
		return nil, err
	}
	if u.Op() == host.OpNot {
		out, err := ir.NewNot(operand)
		return out, qerrors.WrapCompile(err)
	}

	// The grammar has no unary minus: -x is written -1 mul x.
	if !operand.Type().NonNullable().IsNumeric() {
		return nil, qerrors.Compilef(qerrors.ErrInvalidNegation,
			"cannot negate %s of type %s", host.Format(u.Operand()), operand.Type())
	}
	out, err := ir.NewBinary(ir.MustConstant(-1), ir.OpMul, operand)
	return out, qerrors.WrapCompile(err)
}

func (s *session) call(c *host.Call) (ir.Node, error) {
	if c.Method() == "ArrayContains" && c.Receiver() == nil {
		return s.arrayContains(c)
	}

	var fn ir.Function
	var ok bool
	args := c.Args()
	if recv := c.Receiver(); recv != nil {
		fn, ok = stringMethods[c.Method()]
		if c.Method() == "Contains" {
			// x.Contains(y) is substringof(y, x)
			args = append(args, recv)
		} else {
			args = append([]host.Expr{recv}, args...)
		}
	} else {
		fn, ok = staticMethods[c.Method()]
	}
	if !ok {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"method %s has no wire form", c.Method())
	}

	nodes := make([]ir.Node, len(args))
	for i, a := range args {
		n, err := s.value(a)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	out, err := ir.NewCall(fn, nodes)
	return out, qerrors.WrapCompile(err)
}

// arrayContains expands array.Contains(v) over a constant array into
// (v eq a0) or (v eq a1) or ... An empty array is false.
func (s *session) arrayContains(c *host.Call) (ir.Node, error) {
	args := c.Args()
	var items []any
	array, ok := args[0].(*host.Constant)
	if ok {
		items, ok = array.Value().([]any)
	}
	if !ok {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"Contains requires a constant array, got %s", host.Format(args[0]))
	}
	value, err := s.value(args[1])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return ir.MustConstant(false), nil
	}

	elem := array.Type().Elem()
	var acc ir.Node
	for _, item := range items {
		k, err := constant(host.TypedConst(item, elem))
		if err != nil {
			return nil, err
		}
		eq, err := ir.NewBinary(value, ir.OpEq, k)
		if err != nil {
			return nil, qerrors.WrapCompile(err)
		}
		if acc == nil {
			acc = eq
			continue
		}
		if acc, err = ir.NewBinary(acc, ir.OpOr, eq); err != nil {
			return nil, qerrors.WrapCompile(err)
		}
	}
	return acc, nil
}

// constant converts a host literal to IR. Byte, SByte and Int16 have no
// literal syntax and widen to Int32; nullable constants become a
// conversion of the non-nullable literal.
func constant(c *host.Constant) (ir.Node, error) {
	if _, ok := c.Source(); ok {
		return nil, qerrors.Compilef(qerrors.ErrNestedQuery, "nested query structures are not supported")
	}
	typ := c.Type()
	if typ.Kind() == schema.KindCollection {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"array constant %s can only be used with Contains", host.Format(c))
	}

	if c.Value() == nil {
		if typ.AcceptsNull() {
			out, err := ir.NewConstant(nil, typ)
			return out, qerrors.WrapCompile(err)
		}
		return ir.MustConstant(nil), nil
	}

	base := typ.NonNullable()
	value, err := coerce(c.Value(), base)
	if err != nil {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"constant %v is not a %s: %v", c.Value(), base, err)
	}
	switch base.Kind() {
	case schema.KindByte, schema.KindSByte, schema.KindInt16:
		base = schema.Int32
	}

	k, err := ir.NewConstant(value, base)
	if err != nil {
		return nil, qerrors.WrapCompile(err)
	}
	if !typ.IsNullable() {
		return k, nil
	}
	out, err := ir.NewConvert(k, base.Nullable())
	return out, qerrors.WrapCompile(err)
}

// coerce brings host values into the IR representation of typ
func coerce(v any, typ *schema.Type) (any, error) {
	switch typ.Kind() {
	case schema.KindByte, schema.KindSByte, schema.KindInt16, schema.KindInt32:
		return cast.ToInt32E(v)
	case schema.KindInt64:
		return cast.ToInt64E(v)
	case schema.KindDouble:
		return cast.ToFloat64E(v)
	case schema.KindSingle:
		return cast.ToFloat32E(v)
	case schema.KindString:
		return cast.ToStringE(v)
	case schema.KindBoolean:
		return cast.ToBoolE(v)
	}
	return v, nil
}
