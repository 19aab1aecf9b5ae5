// Package canon rewrites query operators that come in several shapes into
// the one shape the translator understands:
//
//	Any/First/FirstOrDefault/Single/SingleOrDefault/Count/LongCount(p)
//	                  -> Where(p).Op()
//	All(p)            -> !Where(!p).Any()
//	Min/Max(sel)      -> Select(sel).Min/Max()
//	Min/Max()         -> [Where(x != null).]OrderBy[Descending](x => x).Take(1).First[OrDefault]()
//	Contains(v)       -> Any(x => x == v)
//
// Rules are applied until nothing changes.
package canon

import (
	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Canonicalize returns e with every query operator in canonical form.
// A tree that is already canonical is returned unchanged.
func Canonicalize(e host.Expr) (host.Expr, error) {
	for {
		out, err := host.Rewrite(e, rewrite)
		if err != nil {
			return nil, err
		}
		if out == e {
			return out, nil
		}
		e = out
	}
}

var predicateForms = map[host.QueryOp]bool{
	host.Any:             true,
	host.First:           true,
	host.FirstOrDefault:  true,
	host.Single:          true,
	host.SingleOrDefault: true,
	host.Count:           true,
	host.LongCount:       true,
}

func rewrite(e host.Expr) (host.Expr, error) {
	qc, ok := e.(*host.QueryCall)
	if !ok {
		return e, nil
	}
	src := qc.Source()

	switch op := qc.Op(); {
	case predicateForms[op] && qc.NumArgs() == 1:
		pred, ok := qc.Lambda()
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "%s expects a predicate", op)
		}
		return host.NewQueryCall(op, where(src, pred), qc.Type()), nil

	case op == host.All:
		pred, ok := qc.Lambda()
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "All expects a predicate")
		}
		negated := host.NewLambda(pred.Param(), host.Not(pred.Body()))
		return host.Not(host.NewQueryCall(host.Any, where(src, negated), schema.Boolean)), nil

	case (op == host.Min || op == host.Max) && qc.NumArgs() == 1:
		sel, ok := qc.Lambda()
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "%s expects a selector", op)
		}
		projected := host.NewQueryCall(host.Select, src, schema.CollectionOf(sel.Type()), sel)
		return host.NewQueryCall(op, projected, qc.Type()), nil

	case op == host.Min || op == host.Max:
		return extremum(qc)

	case op == host.Contains:
		elem := host.ElemType(src)
		if elem == nil || !elem.IsPrimitive() {
			return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
				"Contains over %s elements is not supported", elemName(elem))
		}
		x := host.Param("x", elem)
		pred := host.NewLambda(x, host.Eq(x, qc.Arg(0)))
		return host.NewQueryCall(host.Any, src, schema.Boolean, pred), nil
	}
	return e, nil
}

func where(src host.Expr, pred *host.Lambda) host.Expr {
	return host.NewQueryCall(host.Where, src, src.Type(), pred)
}

// extremum orders by the element itself and keeps the first row. Nulls
// are filtered first so that they never win; an empty nullable sequence
// yields null.
func extremum(qc *host.QueryCall) (host.Expr, error) {
	src := qc.Source()
	elem := host.ElemType(src)
	if elem == nil || !elem.IsPrimitive() {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"%s over %s elements is not supported", qc.Op(), elemName(elem))
	}

	seq := src
	terminal := host.First
	if elem.AcceptsNull() {
		x := host.Param("x", elem)
		seq = where(seq, host.NewLambda(x, host.Ne(x, host.TypedConst(nil, elem))))
		terminal = host.FirstOrDefault
	}

	order := host.OrderBy
	if qc.Op() == host.Max {
		order = host.OrderByDescending
	}
	x := host.Param("x", elem)
	seq = host.NewQueryCall(order, seq, seq.Type(), host.NewLambda(x, x))
	seq = host.NewQueryCall(host.Take, seq, seq.Type(), host.Const(1))
	return host.NewQueryCall(terminal, seq, qc.Type()), nil
}

func elemName(t *schema.Type) string {
	if t == nil {
		return "non-sequence"
	}
	return t.String()
}
