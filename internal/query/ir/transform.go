package ir

import (
	"fmt"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
)

// Transform rebuilds n bottom-up, replacing every node with fn's result.
// A node is reconstructed through its factory only when one of its
// children changed; otherwise the original node is passed to fn, so an
// identity fn returns the input tree itself. Member chains are visited as
// a single leaf.
func Transform(n Node, fn func(Node) (Node, error)) (Node, error) {
	if n == nil {
		return nil, nil
	}
	rebuilt, err := rebuild(n, fn)
	if err != nil {
		return nil, err
	}
	return fn(rebuilt)
}

func rebuild(n Node, fn func(Node) (Node, error)) (Node, error) {
	switch x := n.(type) {
	case *Binary:
		l, err := Transform(x.left, fn)
		if err != nil {
			return nil, err
		}
		r, err := Transform(x.right, fn)
		if err != nil {
			return nil, err
		}
		if l == x.left && r == x.right {
			return x, nil
		}
		return NewBinary(l, x.op, r)
	case *Unary:
		o, err := Transform(x.operand, fn)
		if err != nil {
			return nil, err
		}
		if o == x.operand {
			return x, nil
		}
		return NewNot(o)
	case *Call:
		args := make([]Node, len(x.args))
		changed := false
		for i, a := range x.args {
			t, err := Transform(a, fn)
			if err != nil {
				return nil, err
			}
			args[i] = t
			changed = changed || t != a
		}
		if !changed {
			return x, nil
		}
		return NewCall(x.fn, args)
	case *Convert:
		o, err := Transform(x.operand, fn)
		if err != nil {
			return nil, err
		}
		if o == x.operand {
			return x, nil
		}
		return NewConvert(o, x.typ)
	case *SortKey:
		e, err := Transform(x.expr, fn)
		if err != nil {
			return nil, err
		}
		if e == x.expr {
			return x, nil
		}
		return NewSortKey(e, x.descending)
	case *Query:
		return rebuildQuery(x, fn)
	}
	return n, nil
}

func rebuildQuery(q *Query, fn func(Node) (Node, error)) (Node, error) {
	var opts []QueryOption

	if q.filter != nil {
		f, err := Transform(q.filter, fn)
		if err != nil {
			return nil, err
		}
		if f != q.filter {
			opts = append(opts, WithFilter(f))
		}
	}

	keys := make([]*SortKey, len(q.orderBy))
	keysChanged := false
	for i, k := range q.orderBy {
		t, err := Transform(k, fn)
		if err != nil {
			return nil, err
		}
		sk, ok := t.(*SortKey)
		if !ok {
			return nil, errNotA(t, KindSortKey)
		}
		keys[i] = sk
		keysChanged = keysChanged || sk != k
	}
	if keysChanged {
		opts = append(opts, WithOrderBy(keys...))
	}

	cols := make([]*SelectColumn, len(q.selectCols))
	colsChanged := false
	for i, c := range q.selectCols {
		t, err := Transform(c, fn)
		if err != nil {
			return nil, err
		}
		sc, ok := t.(*SelectColumn)
		if !ok {
			return nil, errNotA(t, KindSelectColumn)
		}
		cols[i] = sc
		colsChanged = colsChanged || sc != c
	}
	if colsChanged {
		opts = append(opts, WithSelect(cols...))
	}

	if len(opts) == 0 {
		return q, nil
	}
	return q.With(opts...)
}

func errNotA(n Node, want NodeKind) error {
	if n == nil {
		return fmt.Errorf("%w: transform removed a %s", qerrors.ErrTypeMismatch, want)
	}
	return fmt.Errorf("%w: transform produced %s where %s is required", qerrors.ErrTypeMismatch, n.Kind(), want)
}
