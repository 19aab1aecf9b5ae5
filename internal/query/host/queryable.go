package host

import "github.com/conduit-lang/wirequery/internal/query/schema"

// Queryable is a fluent builder over a host query tree. Every method
// returns a new value; the receiver is never modified.
//
//	q := host.From(items).
//		Where(func(x host.Expr) host.Expr { return host.Gt(host.Prop(x, "Price"), host.Const(20)) }).
//		OrderBy(func(x host.Expr) host.Expr { return host.Prop(x, "Name") }).
//		Take(10)
type Queryable struct {
	expr Expr
	elem *schema.Type
}

// From starts a query over src
func From(src *Source) Queryable {
	return Queryable{expr: Const(src), elem: src.elem}
}

// Expr returns the built tree
func (q Queryable) Expr() Expr { return q.expr }

// Elem returns the current element type
func (q Queryable) Elem() *schema.Type { return q.elem }

// String renders the tree for debugging
func (q Queryable) String() string { return Format(q.expr) }

func (q Queryable) seq(op QueryOp, elem *schema.Type, args ...Expr) Queryable {
	return Queryable{expr: NewQueryCall(op, q.expr, schema.CollectionOf(elem), args...), elem: elem}
}

func (q Queryable) lambda(body func(Expr) Expr) *Lambda {
	return Func(q.elem, body)
}

func (q Queryable) terminal(op QueryOp, typ *schema.Type, args ...Expr) Expr {
	return NewQueryCall(op, q.expr, typ, args...)
}

// Where filters by a boolean predicate
func (q Queryable) Where(pred func(Expr) Expr) Queryable {
	return q.seq(Where, q.elem, q.lambda(pred))
}

// Select projects each element
func (q Queryable) Select(sel func(Expr) Expr) Queryable {
	l := q.lambda(sel)
	return q.seq(Select, l.Type(), l)
}

// OrderBy sorts ascending by key
func (q Queryable) OrderBy(key func(Expr) Expr) Queryable {
	return q.seq(OrderBy, q.elem, q.lambda(key))
}

// OrderByDescending sorts descending by key
func (q Queryable) OrderByDescending(key func(Expr) Expr) Queryable {
	return q.seq(OrderByDescending, q.elem, q.lambda(key))
}

// ThenBy adds an ascending secondary key
func (q Queryable) ThenBy(key func(Expr) Expr) Queryable {
	return q.seq(ThenBy, q.elem, q.lambda(key))
}

// ThenByDescending adds a descending secondary key
func (q Queryable) ThenByDescending(key func(Expr) Expr) Queryable {
	return q.seq(ThenByDescending, q.elem, q.lambda(key))
}

// Skip bypasses n elements
func (q Queryable) Skip(n int) Queryable {
	return q.seq(Skip, q.elem, Const(n))
}

// Take keeps at most n elements
func (q Queryable) Take(n int) Queryable {
	return q.seq(Take, q.elem, Const(n))
}

func (q Queryable) Any() Expr { return q.terminal(Any, schema.Boolean) }

func (q Queryable) AnyWhere(pred func(Expr) Expr) Expr {
	return q.terminal(Any, schema.Boolean, q.lambda(pred))
}

func (q Queryable) All(pred func(Expr) Expr) Expr {
	return q.terminal(All, schema.Boolean, q.lambda(pred))
}

func (q Queryable) Count() Expr { return q.terminal(Count, schema.Int32) }

func (q Queryable) CountWhere(pred func(Expr) Expr) Expr {
	return q.terminal(Count, schema.Int32, q.lambda(pred))
}

func (q Queryable) LongCount() Expr { return q.terminal(LongCount, schema.Int64) }

func (q Queryable) LongCountWhere(pred func(Expr) Expr) Expr {
	return q.terminal(LongCount, schema.Int64, q.lambda(pred))
}

func (q Queryable) First() Expr { return q.terminal(First, q.elem) }

func (q Queryable) FirstWhere(pred func(Expr) Expr) Expr {
	return q.terminal(First, q.elem, q.lambda(pred))
}

func (q Queryable) FirstOrDefault() Expr { return q.terminal(FirstOrDefault, q.elem) }

func (q Queryable) FirstOrDefaultWhere(pred func(Expr) Expr) Expr {
	return q.terminal(FirstOrDefault, q.elem, q.lambda(pred))
}

func (q Queryable) Single() Expr { return q.terminal(Single, q.elem) }

func (q Queryable) SingleWhere(pred func(Expr) Expr) Expr {
	return q.terminal(Single, q.elem, q.lambda(pred))
}

func (q Queryable) SingleOrDefault() Expr { return q.terminal(SingleOrDefault, q.elem) }

func (q Queryable) SingleOrDefaultWhere(pred func(Expr) Expr) Expr {
	return q.terminal(SingleOrDefault, q.elem, q.lambda(pred))
}

// Min returns the smallest element
func (q Queryable) Min() Expr { return q.terminal(Min, q.elem) }

// MinOf returns the smallest selected value
func (q Queryable) MinOf(sel func(Expr) Expr) Expr {
	l := q.lambda(sel)
	return q.terminal(Min, l.Type(), l)
}

// Max returns the largest element
func (q Queryable) Max() Expr { return q.terminal(Max, q.elem) }

// MaxOf returns the largest selected value
func (q Queryable) MaxOf(sel func(Expr) Expr) Expr {
	l := q.lambda(sel)
	return q.terminal(Max, l.Type(), l)
}

// Contains tests whether the sequence contains value
func (q Queryable) Contains(value Expr) Expr {
	return q.terminal(Contains, schema.Boolean, value)
}
