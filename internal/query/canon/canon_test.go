package canon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/query/canon"
	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
)

func TestCanonicalize(t *testing.T) {
	m := testmodel.New()
	q := host.From(host.NewSource("items", m.Item))
	flag := func(x host.Expr) host.Expr { return host.Prop(x, "Flag") }
	prop := func(name string) func(host.Expr) host.Expr {
		return func(x host.Expr) host.Expr { return host.Prop(x, name) }
	}

	tests := []struct {
		name string
		expr host.Expr
		want string
	}{
		{"any predicate", q.AnyWhere(flag), "items.Where(x => x.Flag).Any()"},
		{"count predicate", q.CountWhere(flag), "items.Where(x => x.Flag).Count()"},
		{"single predicate", q.SingleOrDefaultWhere(flag), "items.Where(x => x.Flag).SingleOrDefault()"},
		{"all", q.All(flag), "!items.Where(x => !x.Flag).Any()"},
		{
			"max selector",
			q.MaxOf(prop("Price")),
			"items.Select(x => x.Price).OrderByDescending(x => x).Take(1).First()",
		},
		{
			"min nullable",
			q.MinOf(prop("NullableInt")),
			"items.Select(x => x.NullableInt).Where(x => (x != null)).OrderBy(x => x).Take(1).FirstOrDefault()",
		},
		{
			"min string",
			q.Select(prop("Name")).Min(),
			"items.Select(x => x.Name).Where(x => (x != null)).OrderBy(x => x).Take(1).FirstOrDefault()",
		},
		{
			"contains",
			q.Select(prop("Int")).Contains(host.Const(3)),
			"items.Select(x => x.Int).Where(x => (x == 3)).Any()",
		},
		{"already canonical", q.Where(flag).Any(), "items.Where(x => x.Flag).Any()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := canon.Canonicalize(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())

			again, err := canon.Canonicalize(out)
			require.NoError(t, err)
			assert.Same(t, out, again, "canonical form is a fixed point")
		})
	}
}

func TestCanonicalizeRejectsComplexElements(t *testing.T) {
	m := testmodel.New()
	q := host.From(host.NewSource("items", m.Item))

	for _, e := range []host.Expr{
		q.Contains(host.Param("y", m.Item)),
		q.Max(),
	} {
		_, err := canon.Canonicalize(e)
		require.Error(t, err)
		assert.Equal(t, qerrors.ErrUnsupportedConstruct, qerrors.CodeOf(err))
	}
}
