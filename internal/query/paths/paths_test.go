package paths_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/paths"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
)

// newTranslator wires a path translator to a minimal expression
// translator covering parameters, members, constants and addition.
func newTranslator(t *testing.T, root *testmodel.Model) *paths.Translator {
	var tr *paths.Translator
	var translate paths.TranslateFunc
	translate = func(e host.Expr) (ir.Node, error) {
		switch x := e.(type) {
		case *host.Parameter:
			return tr.Parameter(x)
		case *host.Member:
			return tr.Member(x)
		case *host.Constant:
			return ir.ConstantOf(x.Value())
		case *host.Binary:
			l, err := translate(x.Left())
			if err != nil {
				return nil, err
			}
			r, err := translate(x.Right())
			if err != nil {
				return nil, err
			}
			return ir.NewBinary(l, ir.OpAdd, r)
		}
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "unsupported %s", e.Kind())
	}
	tr = paths.New(root.Item, translate)
	return tr
}

func TestBindWithoutProjection(t *testing.T) {
	m := testmodel.New()
	tr := newTranslator(t, m)
	a := host.Param("a", m.Item)

	node, err := tr.Parameter(a)
	require.NoError(t, err)
	assert.Nil(t, node, "the bare parameter is the root row")

	node, err = tr.Member(host.Path(a, "B", "C", "Value").(*host.Member))
	require.NoError(t, err)
	assert.Equal(t, "B/C/Value", node.String())

	node, err = tr.Member(host.Prop(host.Prop(a, "Name"), "Length"))
	require.NoError(t, err)
	assert.Equal(t, "length(Name)", node.String())

	node, err = tr.Member(host.Prop(host.Prop(a, "NullableInt"), "HasValue"))
	require.NoError(t, err)
	assert.Equal(t, "NullableInt ne null", node.String())

	assert.Empty(t, tr.ReferencedPaths())
}

func TestRegisterProjection(t *testing.T) {
	m := testmodel.New()
	tr := newTranslator(t, m)

	sel := host.Func(m.Item, func(a host.Expr) host.Expr {
		return host.NewObject(
			host.F("n", host.Prop(a, "Name")),
			host.F("id", host.Add(host.Path(a, "B", "Id"), host.Const(2))),
			host.F("b", host.Prop(a, "B")),
		)
	})
	tr.RegisterProjection(sel)
	assert.Equal(t, 1, tr.Depth())

	x := host.Param("t", sel.Type())
	node, err := tr.Member(host.Prop(x, "id"))
	require.NoError(t, err)
	assert.Equal(t, "B/Id add 2", node.String())

	node, err = tr.Member(host.Path(x, "b", "Label").(*host.Member))
	require.NoError(t, err)
	assert.Equal(t, "B/Label", node.String())

	_, err = tr.Parameter(x)
	require.Error(t, err, "an anonymous object has no wire form")

	cols, err := tr.SelectColumns()
	require.NoError(t, err)
	assert.Equal(t, "Name,B/*", ir.RenderSelect(cols))
}

func TestComputedEntryCannotBeExtended(t *testing.T) {
	m := testmodel.New()
	tr := newTranslator(t, m)

	sel := host.Func(m.Item, func(a host.Expr) host.Expr {
		return host.Add(host.Prop(a, "Int"), host.Const(1))
	})
	tr.RegisterProjection(sel)

	x := host.Param("t", sel.Type())
	node, err := tr.Parameter(x)
	require.NoError(t, err)
	assert.Equal(t, "Int add 1", node.String())

	cols, err := tr.SelectColumns()
	require.NoError(t, err)
	assert.Equal(t, "Int", ir.RenderSelect(cols))
}

func TestIdentityProjectionSelectsStar(t *testing.T) {
	m := testmodel.New()
	tr := newTranslator(t, m)

	tr.RegisterProjection(host.Func(m.Item, func(a host.Expr) host.Expr { return a }))

	x := host.Param("t", m.Item)
	node, err := tr.Member(host.Prop(x, "Price"))
	require.NoError(t, err)
	assert.Equal(t, "Price", node.String())

	cols, err := tr.SelectColumns()
	require.NoError(t, err)
	assert.Equal(t, "*", ir.RenderSelect(cols))

	proj, err := tr.FinalProjection()
	require.NoError(t, err)
	assert.Equal(t, "x => x", proj.String())
}
