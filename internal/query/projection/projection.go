// Package projection builds the client-side projection of a query: the
// composition of every Select stage into one lambda over the raw row.
package projection

import (
	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
)

// Compose inlines each lambda into the next one, so that the result maps a
// source row straight to the final projected value, and simplifies the
// result. Compose of no lambdas is nil.
func Compose(lambdas []*host.Lambda) (*host.Lambda, error) {
	if len(lambdas) == 0 {
		return nil, nil
	}
	acc := lambdas[0]
	for _, next := range lambdas[1:] {
		body := host.Substitute(next.Body(), next.Param(), acc.Body())
		acc = host.NewLambda(acc.Param(), body)
	}
	body, err := Simplify(acc.Body())
	if err != nil {
		return nil, err
	}
	return host.NewLambda(acc.Param(), body), nil
}

// Simplify collapses member reads of freshly constructed objects:
// new { a = e }.a becomes e. Nested constructions resolve inside-out.
func Simplify(e host.Expr) (host.Expr, error) {
	return host.Rewrite(e, func(n host.Expr) (host.Expr, error) {
		m, ok := n.(*host.Member)
		if !ok {
			return n, nil
		}
		obj, ok := m.Instance().(*host.New)
		if !ok {
			return n, nil
		}
		value, ok := obj.Field(m.Name())
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrUninitializedMember,
				"member %s accessed but never initialized", m.Name())
		}
		return value, nil
	})
}
