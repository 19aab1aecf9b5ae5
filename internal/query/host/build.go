package host

import (
	"fmt"

	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// The constructors below build well-typed host trees. They panic on
// programming errors (unknown member, unknown method), the same way a
// host compiler would reject such code before it ever ran.

// Param declares a lambda parameter
func Param(name string, typ *schema.Type) *Parameter {
	return &Parameter{name: name, typ: typ}
}

// Const wraps a Go value. The type is inferred the way ir.ConstantOf
// infers it; a *Source becomes a collection-typed root constant.
func Const(value any) *Constant {
	if s, ok := value.(*Source); ok {
		return &Constant{value: s, typ: schema.CollectionOf(s.elem)}
	}
	c, err := ir.ConstantOf(value)
	if err != nil {
		panic(err)
	}
	return &Constant{value: c.Value(), typ: c.Type()}
}

// TypedConst wraps value with an explicit type, e.g. a nullable Int32
func TypedConst(value any, typ *schema.Type) *Constant {
	return &Constant{value: value, typ: typ}
}

// Array builds a constant array of elem values
func Array(elem *schema.Type, values ...any) *Constant {
	return &Constant{value: append([]any(nil), values...), typ: schema.CollectionOf(elem)}
}

var dateParts = map[string]*schema.Type{
	"Year": schema.Int32, "Month": schema.Int32, "Day": schema.Int32,
	"Hour": schema.Int32, "Minute": schema.Int32, "Second": schema.Int32,
}

// specialMember returns the result type of a built-in member on a
// primitive or nullable type
func specialMember(owner *schema.Type, name string) (*schema.Type, bool) {
	if owner.IsNullable() {
		switch name {
		case "HasValue":
			return schema.Boolean, true
		case "Value":
			return owner.NonNullable(), true
		}
		return nil, false
	}
	switch owner.Kind() {
	case schema.KindString:
		if name == "Length" {
			return schema.Int32, true
		}
	case schema.KindDateTime, schema.KindDateTimeOffset:
		t, ok := dateParts[name]
		return t, ok
	}
	return nil, false
}

// IsSpecialMember reports whether m is a built-in member of a primitive
// or nullable value rather than a declared property
func IsSpecialMember(m *Member) bool {
	return m.prop.Owner == nil || m.prop.Owner.Kind() != schema.KindComplex
}

// Prop accesses a property of x. Declared properties of complex types
// resolve case-insensitively; Length, Year..Second, HasValue and Value
// resolve on the primitive types that have them.
func Prop(x Expr, name string) *Member {
	owner := x.Type()
	if owner.Kind() == schema.KindComplex {
		p, ok := owner.Property(name)
		if !ok {
			panic(fmt.Sprintf("host: type %s has no member %s", owner, name))
		}
		return &Member{instance: x, prop: p}
	}
	typ, ok := specialMember(owner, name)
	if !ok {
		panic(fmt.Sprintf("host: type %s has no member %s", owner, name))
	}
	return &Member{instance: x, prop: schema.DefaultArena.Intern(owner, name, typ)}
}

// Path accesses a chain of properties, e.g. Path(x, "B", "Id")
func Path(x Expr, names ...string) Expr {
	for _, n := range names {
		x = Prop(x, n)
	}
	return x
}

// MakeBinary applies op. Comparison and logical operators are Boolean;
// arithmetic takes the wider operand type.
func MakeBinary(op BinaryOp, left, right Expr) *Binary {
	typ := schema.Boolean
	switch {
	case op.IsComparison(), op.IsLogical():
	case op == OpCoalesce:
		typ = right.Type()
	default:
		typ = promote(left.Type(), right.Type())
	}
	return &Binary{op: op, left: left, right: right, typ: typ}
}

func promote(l, r *schema.Type) *schema.Type {
	switch {
	case l.Equal(r):
		return l
	case schema.ImplicitlyConvertible(r, l):
		return l
	case schema.ImplicitlyConvertible(l, r):
		return r
	}
	return l
}

func Add(l, r Expr) *Binary { return MakeBinary(OpAdd, l, r) }
func Sub(l, r Expr) *Binary { return MakeBinary(OpSubtract, l, r) }
func Mul(l, r Expr) *Binary { return MakeBinary(OpMultiply, l, r) }
func Div(l, r Expr) *Binary { return MakeBinary(OpDivide, l, r) }
func Mod(l, r Expr) *Binary { return MakeBinary(OpModulo, l, r) }
func Eq(l, r Expr) *Binary  { return MakeBinary(OpEqual, l, r) }
func Ne(l, r Expr) *Binary  { return MakeBinary(OpNotEqual, l, r) }
func Lt(l, r Expr) *Binary  { return MakeBinary(OpLessThan, l, r) }
func Le(l, r Expr) *Binary  { return MakeBinary(OpLessThanOrEqual, l, r) }
func Gt(l, r Expr) *Binary  { return MakeBinary(OpGreaterThan, l, r) }
func Ge(l, r Expr) *Binary  { return MakeBinary(OpGreaterThanOrEqual, l, r) }
func And(l, r Expr) *Binary { return MakeBinary(OpAndAlso, l, r) }
func Or(l, r Expr) *Binary  { return MakeBinary(OpOrElse, l, r) }

// Not negates a boolean
func Not(x Expr) *Unary {
	return &Unary{op: OpNot, operand: x, typ: x.Type()}
}

// Negate arithmetically negates x
func Negate(x Expr) *Unary {
	return &Unary{op: OpNegate, operand: x, typ: x.Type()}
}

// ConvertTo converts x to typ
func ConvertTo(x Expr, typ *schema.Type) *Convert {
	return &Convert{operand: x, typ: typ}
}

// Cond builds test ? ifTrue : ifFalse
func Cond(test, ifTrue, ifFalse Expr) *Condition {
	return &Condition{test: test, ifTrue: ifTrue, ifFalse: ifFalse}
}

type methodSig struct {
	static bool
	arity  []int
	result func(recv *schema.Type, args []Expr) *schema.Type
}

func returns(t *schema.Type) func(*schema.Type, []Expr) *schema.Type {
	return func(*schema.Type, []Expr) *schema.Type { return t }
}

func firstArg(_ *schema.Type, args []Expr) *schema.Type { return args[0].Type() }

// methods is the host method table. Instance methods are string methods;
// static methods cover string concatenation, rounding and array
// containment.
var methods = map[string]methodSig{
	"StartsWith": {arity: []int{1}, result: returns(schema.Boolean)},
	"EndsWith":   {arity: []int{1}, result: returns(schema.Boolean)},
	"Contains":   {arity: []int{1}, result: returns(schema.Boolean)},
	"IndexOf":    {arity: []int{1}, result: returns(schema.Int32)},
	"Replace":    {arity: []int{2}, result: returns(schema.String)},
	"Substring":  {arity: []int{1, 2}, result: returns(schema.String)},
	"ToLower":    {arity: []int{0}, result: returns(schema.String)},
	"ToUpper":    {arity: []int{0}, result: returns(schema.String)},
	"Trim":       {arity: []int{0}, result: returns(schema.String)},

	"Concat":        {static: true, arity: []int{2}, result: returns(schema.String)},
	"Round":         {static: true, arity: []int{1}, result: firstArg},
	"Floor":         {static: true, arity: []int{1}, result: firstArg},
	"Ceiling":       {static: true, arity: []int{1}, result: firstArg},
	"ArrayContains": {static: true, arity: []int{2}, result: returns(schema.Boolean)},
}

func lookupMethod(name string, static bool, args []Expr) methodSig {
	m, ok := methods[name]
	if !ok || m.static != static {
		panic(fmt.Sprintf("host: unknown method %s", name))
	}
	for _, n := range m.arity {
		if n == len(args) {
			return m
		}
	}
	panic(fmt.Sprintf("host: %s does not take %d arguments", name, len(args)))
}

// Invoke calls a string method on recv
func Invoke(recv Expr, method string, args ...Expr) *Call {
	if recv.Type().NonNullable() != schema.String {
		panic(fmt.Sprintf("host: %s is not a method of %s", method, recv.Type()))
	}
	m := lookupMethod(method, false, args)
	return &Call{method: method, receiver: recv, args: args, typ: m.result(recv.Type(), args)}
}

// CallStatic calls a static method from the host method table
func CallStatic(method string, args ...Expr) *Call {
	m := lookupMethod(method, true, args)
	return &Call{method: method, args: args, typ: m.result(nil, args)}
}

// In tests whether array contains value. array is usually an Array constant.
func In(array, value Expr) *Call {
	return CallStatic("ArrayContains", array, value)
}

// Method builds a call without consulting the method table. The
// translator rejects methods it does not know.
func Method(recv Expr, method string, typ *schema.Type, args ...Expr) *Call {
	return &Call{method: method, receiver: recv, args: args, typ: typ}
}

// NewLambda builds a lambda from an explicit parameter
func NewLambda(param *Parameter, body Expr) *Lambda {
	return &Lambda{param: param, body: body}
}

// Func builds a lambda over a fresh parameter of type typ
func Func(typ *schema.Type, body func(x Expr) Expr) *Lambda {
	p := Param("x", typ)
	return &Lambda{param: p, body: body(p)}
}

// F pairs a member name with its initializer
func F(name string, value Expr) Field {
	return Field{Name: name, Value: value}
}

// NewObject constructs an anonymous object. Objects with the same member
// names and types share one interned anonymous type.
func NewObject(fields ...Field) *New {
	shape := make([]schema.Field, len(fields))
	for i, f := range fields {
		shape[i] = schema.Field{Name: f.Name, Type: f.Value.Type()}
	}
	return &New{
		fields: append([]Field(nil), fields...),
		typ:    schema.DefaultArena.Anonymous(shape...),
	}
}

// NewQueryCall applies a query operator to source. typ is the result
// type: a collection for sequence operators, a scalar for terminals.
func NewQueryCall(op QueryOp, source Expr, typ *schema.Type, args ...Expr) *QueryCall {
	return &QueryCall{op: op, source: source, args: args, typ: typ}
}
