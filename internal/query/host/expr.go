// Package host defines the host query tree: the typed expression
// vocabulary an application uses to describe a query (predicates,
// projections, orderings, paging and terminal operators), plus a fluent
// Queryable builder that assembles such trees.
//
// Host trees are richer than the wire grammar. The translator reduces
// them to IR and leaves whatever cannot be expressed server-side to a
// residual client-side computation.
package host

import (
	"fmt"

	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// ExprKind enumerates the host expression variants
type ExprKind int

const (
	KindParameter ExprKind = iota
	KindConstant
	KindMember
	KindBinary
	KindUnary
	KindConvert
	KindCall
	KindCondition
	KindLambda
	KindNew
	KindQueryCall
)

// ExprKindNames maps expression kinds to their string representations
var ExprKindNames = map[ExprKind]string{
	KindParameter: "Parameter",
	KindConstant:  "Constant",
	KindMember:    "MemberAccess",
	KindBinary:    "Binary",
	KindUnary:     "Unary",
	KindConvert:   "Convert",
	KindCall:      "Call",
	KindCondition: "Conditional",
	KindLambda:    "Lambda",
	KindNew:       "New",
	KindQueryCall: "QueryCall",
}

// String returns the string representation of an ExprKind
func (k ExprKind) String() string {
	if name, ok := ExprKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ExprKind(%d)", int(k))
}

// Expr is a host expression node. The interface is sealed.
type Expr interface {
	Kind() ExprKind
	Type() *schema.Type
	String() string

	expr()
}

// Source is a queryable data source: the logical root of a query.
type Source struct {
	name string
	elem *schema.Type
}

// NewSource declares a source of elem rows
func NewSource(name string, elem *schema.Type) *Source {
	return &Source{name: name, elem: elem}
}

// Name returns the source name
func (s *Source) Name() string { return s.name }

// Elem returns the row type
func (s *Source) Elem() *schema.Type { return s.elem }

// Parameter is a lambda parameter. Parameters are compared by identity.
type Parameter struct {
	name string
	typ  *schema.Type
}

func (*Parameter) expr()                {}
func (*Parameter) Kind() ExprKind       { return KindParameter }
func (p *Parameter) Type() *schema.Type { return p.typ }
func (p *Parameter) String() string     { return Format(p) }

// Name returns the parameter name
func (p *Parameter) Name() string { return p.name }

// Constant is a literal value, an array of literals, or a Source.
type Constant struct {
	value any
	typ   *schema.Type
}

func (*Constant) expr()                {}
func (*Constant) Kind() ExprKind       { return KindConstant }
func (c *Constant) Type() *schema.Type { return c.typ }
func (c *Constant) String() string     { return Format(c) }

// Value returns the literal value
func (c *Constant) Value() any { return c.value }

// Source returns the queryable source held by the constant, if any
func (c *Constant) Source() (*Source, bool) {
	s, ok := c.value.(*Source)
	return s, ok
}

// Member is a property access on an instance expression.
type Member struct {
	instance Expr
	prop     *schema.Property
}

func (*Member) expr()                {}
func (*Member) Kind() ExprKind       { return KindMember }
func (m *Member) Type() *schema.Type { return m.prop.Type }
func (m *Member) String() string     { return Format(m) }

// Instance returns the accessed expression
func (m *Member) Instance() Expr { return m.instance }

// Property returns the accessed property
func (m *Member) Property() *schema.Property { return m.prop }

// Name returns the property name
func (m *Member) Name() string { return m.prop.Name }

// Binary is a binary operator application.
type Binary struct {
	op    BinaryOp
	left  Expr
	right Expr
	typ   *schema.Type
}

func (*Binary) expr()                {}
func (*Binary) Kind() ExprKind       { return KindBinary }
func (b *Binary) Type() *schema.Type { return b.typ }
func (b *Binary) String() string     { return Format(b) }

// Op returns the operator
func (b *Binary) Op() BinaryOp { return b.op }

// Left returns the left operand
func (b *Binary) Left() Expr { return b.left }

// Right returns the right operand
func (b *Binary) Right() Expr { return b.right }

// Unary is a unary operator application.
type Unary struct {
	op      UnaryOp
	operand Expr
	typ     *schema.Type
}

func (*Unary) expr()                {}
func (*Unary) Kind() ExprKind       { return KindUnary }
func (u *Unary) Type() *schema.Type { return u.typ }
func (u *Unary) String() string     { return Format(u) }

// Op returns the operator
func (u *Unary) Op() UnaryOp { return u.op }

// Operand returns the operand
func (u *Unary) Operand() Expr { return u.operand }

// Convert is a type conversion.
type Convert struct {
	operand Expr
	typ     *schema.Type
}

func (*Convert) expr()                {}
func (*Convert) Kind() ExprKind       { return KindConvert }
func (c *Convert) Type() *schema.Type { return c.typ }
func (c *Convert) String() string     { return Format(c) }

// Operand returns the converted expression
func (c *Convert) Operand() Expr { return c.operand }

// Call is a method call. Static calls have no receiver.
type Call struct {
	method   string
	receiver Expr
	args     []Expr
	typ      *schema.Type
}

func (*Call) expr()                {}
func (*Call) Kind() ExprKind       { return KindCall }
func (c *Call) Type() *schema.Type { return c.typ }
func (c *Call) String() string     { return Format(c) }

// Method returns the method name
func (c *Call) Method() string { return c.method }

// Receiver returns the receiver, or nil for static calls
func (c *Call) Receiver() Expr { return c.receiver }

// Args returns a copy of the arguments
func (c *Call) Args() []Expr { return append([]Expr(nil), c.args...) }

// Condition is a ternary conditional.
type Condition struct {
	test    Expr
	ifTrue  Expr
	ifFalse Expr
}

func (*Condition) expr()                {}
func (*Condition) Kind() ExprKind       { return KindCondition }
func (c *Condition) Type() *schema.Type { return c.ifTrue.Type() }
func (c *Condition) String() string     { return Format(c) }

// Test returns the condition
func (c *Condition) Test() Expr { return c.test }

// IfTrue returns the value when the test holds
func (c *Condition) IfTrue() Expr { return c.ifTrue }

// IfFalse returns the value otherwise
func (c *Condition) IfFalse() Expr { return c.ifFalse }

// Lambda is a one-parameter function.
type Lambda struct {
	param *Parameter
	body  Expr
}

func (*Lambda) expr()                {}
func (*Lambda) Kind() ExprKind       { return KindLambda }
func (l *Lambda) Type() *schema.Type { return l.body.Type() }
func (l *Lambda) String() string     { return Format(l) }

// Param returns the parameter
func (l *Lambda) Param() *Parameter { return l.param }

// Body returns the body
func (l *Lambda) Body() Expr { return l.body }

// Field is one initializer of a New expression
type Field struct {
	Name  string
	Value Expr
}

// New constructs an anonymous object.
type New struct {
	fields []Field
	typ    *schema.Type
}

func (*New) expr()                {}
func (*New) Kind() ExprKind       { return KindNew }
func (n *New) Type() *schema.Type { return n.typ }
func (n *New) String() string     { return Format(n) }

// Fields returns a copy of the initializers
func (n *New) Fields() []Field { return append([]Field(nil), n.fields...) }

// Field returns the initializer of the named member
func (n *New) Field(name string) (Expr, bool) {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// QueryCall applies a query operator to a sequence.
type QueryCall struct {
	op     QueryOp
	source Expr
	args   []Expr
	typ    *schema.Type
}

func (*QueryCall) expr()                {}
func (*QueryCall) Kind() ExprKind       { return KindQueryCall }
func (q *QueryCall) Type() *schema.Type { return q.typ }
func (q *QueryCall) String() string     { return Format(q) }

// Op returns the query operator
func (q *QueryCall) Op() QueryOp { return q.op }

// Source returns the input sequence
func (q *QueryCall) Source() Expr { return q.source }

// Args returns a copy of the operator arguments
func (q *QueryCall) Args() []Expr { return append([]Expr(nil), q.args...) }

// Arg returns the i-th argument
func (q *QueryCall) Arg(i int) Expr { return q.args[i] }

// NumArgs returns the argument count
func (q *QueryCall) NumArgs() int { return len(q.args) }

// Lambda returns the single lambda argument, if the call has one
func (q *QueryCall) Lambda() (*Lambda, bool) {
	if len(q.args) != 1 {
		return nil, false
	}
	l, ok := q.args[0].(*Lambda)
	return l, ok
}

// ElemType returns the element type of a sequence expression
func ElemType(e Expr) *schema.Type {
	if t := e.Type(); t.Kind() == schema.KindCollection {
		return t.Elem()
	}
	return nil
}
