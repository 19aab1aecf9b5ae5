// Package ir defines the typed intermediate representation shared by the
// wire-grammar parser and the host query translator.
//
// Nodes are immutable and can only be created through the validating
// factories in this package (NewBinary, NewCall, NewConvert, ...). Trees are
// rewritten by building new nodes; Transform shares every subtree that did
// not change.
package ir

import (
	"fmt"

	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// NodeKind enumerates the IR node variants
type NodeKind int

const (
	KindQuery NodeKind = iota
	KindBinary
	KindUnary
	KindCall
	KindConstant
	KindMember
	KindConvert
	KindSortKey
	KindSelectColumn
)

// NodeKindNames maps node kinds to their string representations
var NodeKindNames = map[NodeKind]string{
	KindQuery:        "Query",
	KindBinary:       "BinaryOp",
	KindUnary:        "UnaryOp",
	KindCall:         "Call",
	KindConstant:     "Constant",
	KindMember:       "MemberAccess",
	KindConvert:      "Convert",
	KindSortKey:      "SortKey",
	KindSelectColumn: "SelectColumn",
}

// String returns the string representation of a NodeKind
func (k NodeKind) String() string {
	if name, ok := NodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is an IR expression node.
//
// The interface is sealed: only types in this package implement it, so type
// switches over the variants are exhaustive.
type Node interface {
	// Kind returns the node variant
	Kind() NodeKind
	// Type returns the host representation type of the node's value
	Type() *schema.Type
	// Tag returns the primitive type tag of the node's value
	Tag() schema.Kind
	// String renders the node in the wire grammar
	String() string

	node()
}

// Binary is a binary operator application.
type Binary struct {
	op    BinaryOperator
	left  Node
	right Node
	typ   *schema.Type
}

func (*Binary) node()                {}
func (*Binary) Kind() NodeKind       { return KindBinary }
func (b *Binary) Type() *schema.Type { return b.typ }
func (b *Binary) Tag() schema.Kind   { return b.typ.Kind() }
func (b *Binary) String() string     { return Render(b) }

// Op returns the operator
func (b *Binary) Op() BinaryOperator { return b.op }

// Left returns the left operand
func (b *Binary) Left() Node { return b.left }

// Right returns the right operand
func (b *Binary) Right() Node { return b.right }

// Unary is a unary operator application. The only unary operator of the
// wire grammar is not.
type Unary struct {
	op      UnaryOperator
	operand Node
	typ     *schema.Type
}

func (*Unary) node()                {}
func (*Unary) Kind() NodeKind       { return KindUnary }
func (u *Unary) Type() *schema.Type { return u.typ }
func (u *Unary) Tag() schema.Kind   { return u.typ.Kind() }
func (u *Unary) String() string     { return Render(u) }

// Op returns the operator
func (u *Unary) Op() UnaryOperator { return u.op }

// Operand returns the operand
func (u *Unary) Operand() Node { return u.operand }

// Call is a catalog function application.
type Call struct {
	fn   Function
	args []Node
	typ  *schema.Type
}

func (*Call) node()                {}
func (*Call) Kind() NodeKind       { return KindCall }
func (c *Call) Type() *schema.Type { return c.typ }
func (c *Call) Tag() schema.Kind   { return c.typ.Kind() }
func (c *Call) String() string     { return Render(c) }

// Function returns the called function
func (c *Call) Function() Function { return c.fn }

// Args returns a copy of the arguments
func (c *Call) Args() []Node {
	out := make([]Node, len(c.args))
	copy(out, c.args)
	return out
}

// Arg returns the i-th argument
func (c *Call) Arg(i int) Node { return c.args[i] }

// NumArgs returns the argument count
func (c *Call) NumArgs() int { return len(c.args) }

// Constant is a literal value.
type Constant struct {
	value any
	typ   *schema.Type
}

func (*Constant) node()                {}
func (*Constant) Kind() NodeKind       { return KindConstant }
func (c *Constant) Type() *schema.Type { return c.typ }
func (c *Constant) Tag() schema.Kind   { return c.typ.Kind() }
func (c *Constant) String() string     { return Render(c) }

// Value returns the literal value. Its Go type depends on the tag; see
// NewConstant.
func (c *Constant) Value() any { return c.value }

// IsNull reports whether the constant is the null literal
func (c *Constant) IsNull() bool { return c.value == nil }

// Member is a property access. A nil instance denotes the query's root
// element.
type Member struct {
	instance *Member
	prop     *schema.Property
}

func (*Member) node()                {}
func (*Member) Kind() NodeKind       { return KindMember }
func (m *Member) Type() *schema.Type { return m.prop.Type }
func (m *Member) Tag() schema.Kind   { return m.prop.Type.Kind() }
func (m *Member) String() string     { return Render(m) }

// Instance returns the preceding access, or nil for a root access
func (m *Member) Instance() *Member { return m.instance }

// Property returns the accessed property
func (m *Member) Property() *schema.Property { return m.prop }

// Name returns the declared property name
func (m *Member) Name() string { return m.prop.Name }

// Path returns the chain of properties from the root, root first
func (m *Member) Path() []*schema.Property {
	var rev []*schema.Property
	for cur := m; cur != nil; cur = cur.instance {
		rev = append(rev, cur.prop)
	}
	out := make([]*schema.Property, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// Convert is a type conversion.
type Convert struct {
	operand Node
	typ     *schema.Type
}

func (*Convert) node()                {}
func (*Convert) Kind() NodeKind       { return KindConvert }
func (c *Convert) Type() *schema.Type { return c.typ }
func (c *Convert) Tag() schema.Kind   { return c.typ.Kind() }
func (c *Convert) String() string     { return Render(c) }

// Operand returns the converted expression
func (c *Convert) Operand() Node { return c.operand }

// Implicit reports whether the conversion needs no explicit cast in the
// wire grammar. Implicit conversions render as their operand.
func (c *Convert) Implicit() bool {
	from := c.operand.Type()
	return schema.ImplicitlyConvertible(from, c.typ) || c.typ.IsAssignableFrom(from)
}

// SortKey is one $orderby entry.
type SortKey struct {
	expr       Node
	descending bool
}

func (*SortKey) node()                {}
func (*SortKey) Kind() NodeKind       { return KindSortKey }
func (s *SortKey) Type() *schema.Type { return s.expr.Type() }
func (s *SortKey) Tag() schema.Kind   { return s.expr.Tag() }
func (s *SortKey) String() string     { return Render(s) }

// Expr returns the key expression
func (s *SortKey) Expr() Node { return s.expr }

// Descending reports the sort direction
func (s *SortKey) Descending() bool { return s.descending }

// SelectColumn is one $select entry: "*", a member path, or a complex
// member path followed by "/*".
type SelectColumn struct {
	path     []*schema.Property
	wildcard bool
	typ      *schema.Type
}

func (*SelectColumn) node()                {}
func (*SelectColumn) Kind() NodeKind       { return KindSelectColumn }
func (s *SelectColumn) Type() *schema.Type { return s.typ }
func (s *SelectColumn) Tag() schema.Kind   { return s.typ.Kind() }
func (s *SelectColumn) String() string     { return Render(s) }

// Path returns a copy of the selected property path
func (s *SelectColumn) Path() []*schema.Property {
	out := make([]*schema.Property, len(s.path))
	copy(out, s.path)
	return out
}

// Wildcard reports whether the column selects all scalar descendants
func (s *SelectColumn) Wildcard() bool { return s.wildcard }

// IsStar reports whether the column is the bare "*"
func (s *SelectColumn) IsStar() bool { return s.wildcard && len(s.path) == 0 }
